package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestModelsParse(t *testing.T) {
	all := []interface{}{&User{}, &Employee{}, &PasswordReset{}, &Recurrence{}, &Task{}, &Draft{}, &Review{}}
	for _, model := range all {
		_, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err, "%T", model)
	}

	s, err := schema.Parse(&Recurrence{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	field := s.LookUpField("AssigneeIDs")
	require.NotNil(t, field)
	assert.Equal(t, schema.DataType("text"), field.DataType)
}

func TestStringListValueAndScan(t *testing.T) {
	v, err := StringList{"hr", "urgent"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"hr","urgent"}`, v)

	var l StringList
	require.NoError(t, l.Scan([]byte(`{"hr","urgent"}`)))
	assert.Equal(t, StringList{"hr", "urgent"}, l)
	assert.True(t, l.Contains("hr"))
	assert.False(t, l.Contains("h"))

	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)
}
