package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/formdesk/internal/formio"
	"github.com/zfogg/formdesk/internal/models"
	"github.com/zfogg/formdesk/internal/testutil"
)

func countSeedUsers(t *testing.T, s *Seeder) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(&models.User{}).Where("email LIKE ?", "%@"+Domain).Count(&n).Error)
	return n
}

func TestSeedTest(t *testing.T) {
	ctx := context.Background()
	forms := formio.NewMemoryBackend()
	s := NewSeeder(testutil.NewDB(t), forms)

	summary, err := s.SeedTest(ctx)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Users)
	assert.Equal(t, len(sampleForms), summary.Forms)
	assert.Equal(t, 12, summary.Tasks)
	assert.LessOrEqual(t, summary.Reviewed, summary.Submitted)
	assert.EqualValues(t, 6, countSeedUsers(t, s))

	var tasks int64
	require.NoError(t, s.db.Model(&models.Task{}).Count(&tasks).Error)
	assert.EqualValues(t, 12, tasks)

	var employees int64
	require.NoError(t, s.db.Model(&models.Employee{}).Count(&employees).Error)
	assert.EqualValues(t, 4, employees)

	listed, err := forms.ListForms(ctx, formio.ListQuery{Filter: map[string]string{"tags": FormTag}})
	require.NoError(t, err)
	assert.Len(t, listed, len(sampleForms))
}

func TestSeedReusesAccountsAndForms(t *testing.T) {
	ctx := context.Background()
	forms := formio.NewMemoryBackend()
	s := NewSeeder(testutil.NewDB(t), forms)

	_, err := s.SeedTest(ctx)
	require.NoError(t, err)
	_, err = s.SeedTest(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 6, countSeedUsers(t, s))
	listed, err := forms.ListForms(ctx, formio.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, listed, len(sampleForms))
}

func TestClean(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	s := NewSeeder(db, formio.NewMemoryBackend())

	other := testutil.CreateUser(t, db, models.RoleManager)

	_, err := s.SeedTest(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Clean(ctx))

	assert.Zero(t, countSeedUsers(t, s))

	var tasks, reviews, employees, recurrences int64
	require.NoError(t, db.Model(&models.Task{}).Unscoped().Count(&tasks).Error)
	require.NoError(t, db.Model(&models.Review{}).Count(&reviews).Error)
	require.NoError(t, db.Model(&models.Employee{}).Count(&employees).Error)
	require.NoError(t, db.Model(&models.Recurrence{}).Count(&recurrences).Error)
	assert.Zero(t, tasks)
	assert.Zero(t, reviews)
	assert.Zero(t, employees)
	assert.Zero(t, recurrences)

	var kept models.User
	require.NoError(t, db.First(&kept, "id = ?", other.ID).Error)
}
