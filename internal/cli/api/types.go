package api

import "time"

// ErrorResponse is the error body every endpoint returns.
type ErrorResponse struct {
	Code    string                 `json:"error"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	TOTPEnabled bool       `json:"totp_enabled"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	Employee    *Employee  `json:"employee,omitempty"`
}

type Employee struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	EmployeeNumber string     `json:"employee_number"`
	Department     string     `json:"department"`
	JobTitle       string     `json:"job_title"`
	ManagerID      *string    `json:"manager_id"`
	HiredAt        *time.Time `json:"hired_at"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MeResponse struct {
	User           User  `json:"user"`
	ImpersonatedBy *User `json:"impersonated_by,omitempty"`
}

type TOTPSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
}

type Form struct {
	ID         string                   `json:"_id"`
	Title      string                   `json:"title"`
	Name       string                   `json:"name"`
	Path       string                   `json:"path"`
	Display    string                   `json:"display,omitempty"`
	Tags       []string                 `json:"tags,omitempty"`
	Components []map[string]interface{} `json:"components"`
	Created    *time.Time               `json:"created,omitempty"`
	Modified   *time.Time               `json:"modified,omitempty"`
}

type FormRequest struct {
	Title      string                   `json:"title"`
	Name       string                   `json:"name,omitempty"`
	Path       string                   `json:"path"`
	Display    string                   `json:"display,omitempty"`
	Tags       []string                 `json:"tags,omitempty"`
	Components []map[string]interface{} `json:"components"`
}

type FormListResponse struct {
	Forms  []Form `json:"forms"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type Task struct {
	ID           string     `json:"id"`
	FormID       string     `json:"form_id"`
	FormTitle    string     `json:"form_title"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AssigneeID   string     `json:"assignee_id"`
	Assignee     *User      `json:"assignee,omitempty"`
	CreatedByID  string     `json:"created_by_id"`
	Deadline     time.Time  `json:"deadline"`
	Status       string     `json:"status"`
	SubmissionID *string    `json:"submission_id"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	ReviewedAt   *time.Time `json:"reviewed_at"`
	Late         bool       `json:"late"`
	RecurrenceID *string    `json:"recurrence_id"`
	Sequence     int        `json:"sequence"`
	Tags         []string   `json:"tags"`
	CreatedAt    time.Time  `json:"created_at"`
}

type TaskListResponse struct {
	Tasks  []Task `json:"tasks"`
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type CreateTaskRequest struct {
	FormID      string    `json:"form_id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	AssigneeIDs []string  `json:"assignee_ids"`
	Deadline    time.Time `json:"deadline"`
	Tags        []string  `json:"tags,omitempty"`
}

type CreateRecurringRequest struct {
	FormID        string    `json:"form_id"`
	Title         string    `json:"title,omitempty"`
	Description   string    `json:"description,omitempty"`
	AssigneeIDs   []string  `json:"assignee_ids"`
	Tags          []string  `json:"tags,omitempty"`
	FirstDeadline time.Time `json:"first_deadline"`
	Frequency     int       `json:"frequency"`
	Count         int       `json:"count"`
	Unit          string    `json:"unit"`
	Timezone      string    `json:"timezone,omitempty"`
}

type Recurrence struct {
	ID          string     `json:"id"`
	FormID      string     `json:"form_id"`
	Title       string     `json:"title"`
	Frequency   int        `json:"frequency"`
	Count       int        `json:"count"`
	Unit        string     `json:"unit"`
	StartsAt    time.Time  `json:"starts_at"`
	AssigneeIDs []string   `json:"assignee_ids"`
	CancelledAt *time.Time `json:"cancelled_at"`
}

type RecurringResponse struct {
	Recurrence Recurrence `json:"recurrence"`
	Tasks      []Task     `json:"tasks"`
}

type Draft struct {
	ID        string                 `json:"id"`
	TaskID    string                 `json:"task_id"`
	Data      map[string]interface{} `json:"data"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type Review struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	ReviewerID string    `json:"reviewer_id"`
	Decision   string    `json:"decision"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

type Submission struct {
	ID       string                 `json:"_id"`
	Form     string                 `json:"form"`
	Data     map[string]interface{} `json:"data"`
	Created  *time.Time             `json:"created,omitempty"`
	Modified *time.Time             `json:"modified,omitempty"`
}

type Assignee struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type ResultRow struct {
	Task        *Task       `json:"task"`
	Submission  *Submission `json:"submission"`
	Assignee    *Assignee   `json:"assignee"`
	Status      string      `json:"status"`
	Deadline    *time.Time  `json:"deadline"`
	SubmittedAt *time.Time  `json:"submitted_at"`
	Late        bool        `json:"late"`
}

type ResultsPage struct {
	Rows      []ResultRow    `json:"rows"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
	Summary   map[string]int `json:"summary"`
	Truncated bool           `json:"truncated"`
}

type ExportResult struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Rows      int       `json:"rows"`
	Size      int64     `json:"size"`
	ExpiresAt time.Time `json:"expires_at"`
	Truncated bool      `json:"truncated"`
}

type ExportJob struct {
	ID           string        `json:"id"`
	FormID       string        `json:"form_id"`
	Status       string        `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	ErrorMessage *string       `json:"error_message,omitempty"`
	Result       *ExportResult `json:"result,omitempty"`
}

// Done reports whether the job stopped, successfully or not.
func (j *ExportJob) Done() bool {
	return j.Status == "complete" || j.Status == "failed"
}

type UserListResponse struct {
	Users  []User `json:"users"`
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type CreateUserRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password,omitempty"`
	Role        string `json:"role,omitempty"`
}

type CreateUserResponse struct {
	User     User   `json:"user"`
	Password string `json:"password,omitempty"`
}
