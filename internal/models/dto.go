package models

import (
	"fmt"
	"strings"
	"time"
)

// Identity

type RegisterRequest struct {
	FullName    string `json:"full_name" validate:"notblank,max=255"`
	Email       string `json:"email" validate:"required,email,max=255"`
	PhoneNumber string `json:"phone_number" validate:"max=32"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type CreateUserRequest struct {
	FullName    string `json:"full_name" validate:"notblank,max=255"`
	Email       string `json:"email" validate:"required,email,max=255"`
	PhoneNumber string `json:"phone_number" validate:"max=32"`
	Role        string `json:"role" validate:"required,oneof=admin staff organization entrepreneur freelancer user parent"`
	Designation string `json:"designation" validate:"max=255"`
}

// CreateUserResponse carries the generated password; it is shown only once.
type CreateUserResponse struct {
	User            *User  `json:"user"`
	InitialPassword string `json:"initial_password"`
}

type UpdateProfileRequest struct {
	FullName    *string  `json:"full_name" validate:"omitempty,notblank,max=255"`
	PhoneNumber *string  `json:"phone_number" validate:"omitempty,max=32"`
	Designation *string  `json:"designation" validate:"omitempty,max=255"`
	ProfilePic  *string  `json:"profile_pic" validate:"omitempty,max=2048"`
	Skills      []string `json:"skills" validate:"omitempty,dive,notblank,max=64"`
}

type EditUserRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,notblank,max=255"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=32"`
	Status      *string `json:"status" validate:"omitempty,oneof=active suspended"`
	Role        *string `json:"role" validate:"omitempty,oneof=admin staff organization entrepreneur freelancer user parent"`
}

type UsersResponse struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
	Pages int    `json:"pages"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// Projects

type CreateProjectRequest struct {
	Title            string   `json:"title" validate:"notblank,max=255"`
	Description      string   `json:"description" validate:"max=10000"`
	Task             string   `json:"task" validate:"max=10000"`
	Prerequisites    string   `json:"prerequisites" validate:"max=5000"`
	SubmissionMethod string   `json:"submission_method" validate:"max=255"`
	Deadline         string   `json:"deadline" validate:"required"`
	Difficulty       string   `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	LearningSkills   []string `json:"learning_skills" validate:"omitempty,dive,notblank,max=64"`
	Club             string   `json:"club" validate:"max=255"`
}

type UpdateDeadlineRequest struct {
	Deadline string `json:"deadline" validate:"required"`
}

type SubmitLinkRequest struct {
	Link        string `json:"link" validate:"notblank,max=2048"`
	Description string `json:"description" validate:"max=5000"`
}

type GiveGradeRequest struct {
	UserID string  `json:"user_id" validate:"notblank"`
	Grades []Grade `json:"grades" validate:"required,min=1,dive"`
}

type ProjectListQuery struct {
	Title      string
	Club       string
	Difficulty string
	Sort       string
	Order      string
	Page       int
	Limit      int
}

type ProjectsResponse struct {
	Projects []ProjectView `json:"projects"`
	Total    int           `json:"total"`
	Pages    int           `json:"pages"`
	Page     int           `json:"page"`
	Limit    int           `json:"limit"`
}

// Courses

type CreateCourseRequest struct {
	CourseName               string   `json:"course_name" validate:"notblank,max=255"`
	CourseType               string   `json:"course_type" validate:"required,oneof='Live Class' 'Video Course' 'Text Course' 'Physical Course'"`
	ShortDescription         string   `json:"short_description" validate:"max=500"`
	Description              string   `json:"description" validate:"max=10000"`
	Category                 string   `json:"category" validate:"notblank,max=255"`
	StartDate                string   `json:"start_date"`
	Price                    float64  `json:"price" validate:"gte=0"`
	Discount                 float64  `json:"discount" validate:"gte=0,lte=100"`
	Level                    string   `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Language                 string   `json:"language" validate:"max=64"`
	Duration                 int      `json:"duration" validate:"gte=0"`
	HasCompletionCertificate bool     `json:"has_completion_certificate"`
	HasAssignments           bool     `json:"has_assignments"`
	HasSupport               bool     `json:"has_support"`
	Objectives               []string `json:"objectives" validate:"omitempty,dive,max=500"`
	Tags                     []string `json:"tags" validate:"omitempty,dive,notblank,max=64"`
}

type UpdateCourseRequest struct {
	CourseName               *string  `json:"course_name" validate:"omitempty,notblank,max=255"`
	ShortDescription         *string  `json:"short_description" validate:"omitempty,max=500"`
	Description              *string  `json:"description" validate:"omitempty,max=10000"`
	Category                 *string  `json:"category" validate:"omitempty,notblank,max=255"`
	StartDate                *string  `json:"start_date"`
	Level                    *string  `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Language                 *string  `json:"language" validate:"omitempty,max=64"`
	Duration                 *int     `json:"duration" validate:"omitempty,gte=0"`
	Status                   *string  `json:"status" validate:"omitempty,oneof=Active Pending"`
	HasCompletionCertificate *bool    `json:"has_completion_certificate"`
	HasAssignments           *bool    `json:"has_assignments"`
	HasSupport               *bool    `json:"has_support"`
	Objectives               []string `json:"objectives" validate:"omitempty,dive,max=500"`
	Tags                     []string `json:"tags" validate:"omitempty,dive,notblank,max=64"`
}

type LessonRequest struct {
	Title    string `json:"title" validate:"notblank,max=255"`
	VideoURL string `json:"video_url" validate:"omitempty,url,max=2048"`
}

type CourseListQuery struct {
	CourseName               string
	CourseType               string
	Category                 string
	Level                    string
	Language                 string
	Tags                     []string
	HasCompletionCertificate *bool
	HasAssignments           *bool
	HasSupport               *bool
	Sort                     string
	Order                    string
	Page                     int
	Limit                    int
}

type CoursesResponse struct {
	Courses []CourseView `json:"courses"`
	Total   int          `json:"total"`
	Pages   int          `json:"pages"`
	Page    int          `json:"page"`
	Limit   int          `json:"limit"`
}

// Content

type CreateContentRequest struct {
	Title       string `json:"title" validate:"notblank,max=255"`
	Category    string `json:"category" validate:"max=255"`
	Description string `json:"description" validate:"max=5000"`
	Content     string `json:"content" validate:"max=100000"`
	CoverImage  string `json:"cover_image" validate:"max=2048"`
	VideoURL    string `json:"video_url" validate:"omitempty,url,max=2048"`
}

type CommentRequest struct {
	Comment string `json:"comment" validate:"notblank,max=2000"`
}

type ContentListQuery struct {
	Title    string
	Category string
	Author   string
	Page     int
	Limit    int
}

type ContentsResponse struct {
	Items []ContentView `json:"items"`
	Total int           `json:"total"`
	Pages int           `json:"pages"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// Chat

type ChatMessageRequest struct {
	Message string `json:"message" validate:"notblank,max=4000"`
}

type ChatReply struct {
	SessionID string      `json:"session_id"`
	Reply     ChatMessage `json:"reply"`
}

const dateLayout = "2006-01-02"

// ParseDate accepts a calendar date (YYYY-MM-DD) or an RFC3339 timestamp and returns it in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", s)
	}
	return t.UTC(), nil
}

// Pages returns the number of pages needed for total items at limit per page.
func Pages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Prompt library

type PromptListQuery struct {
	Title    string
	Category string
	Page     int
	Limit    int
}

type PromptsResponse struct {
	Items []Prompt `json:"items"`
	Total int      `json:"total"`
	Pages int      `json:"pages"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
}

type PromptImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
