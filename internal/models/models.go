package models

import "time"

// Role codes accepted for users.role.
const (
	RoleTeacher           = "teacher"
	RoleSchoolAdmin       = "school_admin"
	RoleStudent           = "student"
	RolePlatformAdmin     = "platform_admin"
	RoleTeacherIndividual = "teacher_individual"
	RoleTeacherSchool     = "teacher_school"
)

// Credit transaction types. The ledger is append-only.
const (
	TxPurchase        = "purchase"
	TxUsage           = "usage"
	TxRefund          = "refund"
	TxBonus           = "bonus"
	TxAdminAdjustment = "admin_adjustment"
)

// Notification severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

type User struct {
	ID             string     `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	FirstName      *string    `db:"first_name" json:"firstName,omitempty"`
	LastName       *string    `db:"last_name" json:"lastName,omitempty"`
	Role           string     `db:"role" json:"role"`
	SchoolID       *string    `db:"school_id" json:"schoolId,omitempty"`
	SchoolName     *string    `db:"school_name" json:"schoolName,omitempty"`
	CreditsBalance int        `db:"credits_balance" json:"creditsBalance"`
	IsActive       bool       `db:"is_active" json:"isActive"`
	EmailVerified  bool       `db:"email_verified" json:"emailVerified"`
	Status         string     `db:"status" json:"status"`
	LastLoginAt    *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

type School struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	City      *string   `db:"city" json:"city,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Website   *string   `db:"website" json:"website,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type CreditTransaction struct {
	ID                    string    `db:"id" json:"id"`
	UserID                string    `db:"user_id" json:"userId"`
	TransactionType       string    `db:"transaction_type" json:"transactionType"`
	Amount                int       `db:"amount" json:"amount"`
	BalanceBefore         int       `db:"balance_before" json:"balanceBefore"`
	BalanceAfter          int       `db:"balance_after" json:"balanceAfter"`
	Description           *string   `db:"description" json:"description,omitempty"`
	RelatedSubscriptionID *string   `db:"related_subscription_id" json:"relatedSubscriptionId,omitempty"`
	CreatedAt             time.Time `db:"created_at" json:"createdAt"`
}

type ChatSession struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"userId"`
	Title         string    `db:"title" json:"title"`
	TotalMessages int       `db:"total_messages" json:"totalMessages"`
	CreditsUsed   int       `db:"credits_used" json:"creditsUsed"`
	IsActive      bool      `db:"is_active" json:"isActive"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

type ChatMessage struct {
	ID          string    `db:"id" json:"id"`
	SessionID   string    `db:"session_id" json:"sessionId"`
	MessageType string    `db:"message_type" json:"type"` // user | assistant
	Content     string    `db:"content" json:"content"`
	CreditsCost int       `db:"credits_cost" json:"creditsCost"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type Notification struct {
	ID        string     `db:"id" json:"id"`
	UserID    *string    `db:"user_id" json:"userId,omitempty"`
	SchoolID  *string    `db:"school_id" json:"schoolId,omitempty"`
	Severity  string     `db:"severity" json:"severity"`
	Type      string     `db:"type" json:"type"`
	Title     string     `db:"title" json:"title"`
	Message   string     `db:"message" json:"message"`
	Meta      *string    `db:"meta" json:"meta,omitempty"` // JSON blob
	ReadAt    *time.Time `db:"read_at" json:"readAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

type AIRequest struct {
	ID               string    `db:"id" json:"id"`
	UserID           *string   `db:"user_id" json:"userId,omitempty"`
	RequestType      string    `db:"request_type" json:"requestType"`
	ProviderID       string    `db:"provider_id" json:"providerId"`
	ModelUsed        string    `db:"model_used" json:"modelUsed"`
	Priority         string    `db:"priority" json:"priority"`
	Parameters       *string   `db:"parameters" json:"parameters,omitempty"` // JSON blob
	TokensUsed       int       `db:"tokens_used" json:"tokensUsed"`
	ProcessingTimeMs int64     `db:"processing_time_ms" json:"processingTimeMs"`
	Cost             float64   `db:"cost" json:"cost"`
	Success          bool      `db:"success" json:"success"`
	Cached           bool      `db:"cached" json:"cached"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

type GeneratedFile struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	FileType  string    `db:"file_type" json:"fileType"` // worksheet | lesson_plan | quiz
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type SharedMaterial struct {
	ID       string    `db:"id" json:"id"`
	FileID   string    `db:"file_id" json:"fileId"`
	SchoolID string    `db:"school_id" json:"schoolId"`
	SharedBy string    `db:"shared_by" json:"sharedBy"`
	SharedAt time.Time `db:"shared_at" json:"sharedAt"`
}
