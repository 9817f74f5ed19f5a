package models

import (
	"sort"
	"strings"
	"time"
)

const (
	CourseTypeLive     = "Live Class"
	CourseTypeVideo    = "Video Course"
	CourseTypeText     = "Text Course"
	CourseTypePhysical = "Physical Course"

	CourseLevelBeginner     = "Beginner"
	CourseLevelIntermediate = "Intermediate"
	CourseLevelAdvanced     = "Advanced"

	CourseStatusActive  = "Active"
	CourseStatusPending = "Pending"
)

type Course struct {
	ID                       string    `json:"id" db:"id"`
	CourseName               string    `json:"course_name" db:"course_name"`
	CourseType               string    `json:"course_type" db:"course_type"`
	ShortDescription         string    `json:"short_description" db:"short_description"`
	Description              string    `json:"description" db:"description"`
	Category                 string    `json:"category" db:"category"`
	CreatedBy                string    `json:"created_by" db:"created_by"`
	StartDate                time.Time `json:"start_date" db:"start_date"`
	Price                    float64   `json:"price" db:"price"`
	Discount                 float64   `json:"discount" db:"discount"`
	Level                    string    `json:"level" db:"level"`
	Language                 string    `json:"language" db:"language"`
	Duration                 int       `json:"duration" db:"duration"`
	Rating                   float64   `json:"rating" db:"rating"`
	Status                   string    `json:"status" db:"status"`
	HasCompletionCertificate bool      `json:"has_completion_certificate" db:"has_completion_certificate"`
	HasAssignments           bool      `json:"has_assignments" db:"has_assignments"`
	HasSupport               bool      `json:"has_support" db:"has_support"`
	Objectives               []string  `json:"objectives" db:"objectives"`
	Tags                     []string  `json:"tags" db:"tags"`
	EnrolledUsers            []string  `json:"enrolled_users"`
	Lessons                  []Lesson  `json:"lessons"`
	CreatedAt                time.Time `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time `json:"updated_at" db:"updated_at"`
}

// FinalPrice applies a percentage discount to price.
func FinalPrice(price, discount float64) float64 {
	return price - price*(discount/100)
}

func (c *Course) IsEnrolled(userID string) bool {
	for _, id := range c.EnrolledUsers {
		if id == userID {
			return true
		}
	}
	return false
}

type Lesson struct {
	ID        string    `json:"id" db:"id"`
	CourseID  string    `json:"course_id" db:"course_id"`
	Title     string    `json:"title" db:"title"`
	VideoURL  string    `json:"video_url" db:"video_url"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CourseSort string

const (
	CourseSortNone      CourseSort = ""
	CourseSortPrice     CourseSort = "price"
	CourseSortRating    CourseSort = "rating"
	CourseSortStartDate CourseSort = "start_date"
	CourseSortCreatedAt CourseSort = "created_at"
)

func ParseCourseSort(s string) CourseSort {
	switch CourseSort(s) {
	case CourseSortPrice, CourseSortRating, CourseSortStartDate, CourseSortCreatedAt:
		return CourseSort(s)
	default:
		// unknown sort keys are ignored, as the listing has always done
		return CourseSortNone
	}
}

type CourseFilter struct {
	CourseName               string
	CourseType               string
	Category                 string
	Level                    string
	Language                 string
	Tags                     []string
	CreatedBy                string
	EnrolledUser             string
	HasCompletionCertificate *bool
	HasAssignments           *bool
	HasSupport               *bool
	Sort                     CourseSort
	Descending               bool
	Limit                    int
	Offset                   int
}

func (f CourseFilter) Matches(c *Course) bool {
	if f.CourseName != "" && !strings.Contains(strings.ToLower(c.CourseName), strings.ToLower(f.CourseName)) {
		return false
	}
	if f.CourseType != "" && c.CourseType != f.CourseType {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.Level != "" && c.Level != f.Level {
		return false
	}
	if f.Language != "" && c.Language != f.Language {
		return false
	}
	if f.CreatedBy != "" && c.CreatedBy != f.CreatedBy {
		return false
	}
	if f.EnrolledUser != "" && !c.IsEnrolled(f.EnrolledUser) {
		return false
	}
	if f.HasCompletionCertificate != nil && c.HasCompletionCertificate != *f.HasCompletionCertificate {
		return false
	}
	if f.HasAssignments != nil && c.HasAssignments != *f.HasAssignments {
		return false
	}
	if f.HasSupport != nil && c.HasSupport != *f.HasSupport {
		return false
	}
	if len(f.Tags) > 0 && !anyTag(c.Tags, f.Tags) {
		return false
	}
	return true
}

// SortCourses orders courses in place by the filter's sort key; the
// stable sort keeps insertion order for ties and for CourseSortNone.
func SortCourses(courses []Course, by CourseSort, desc bool) {
	less := func(a, b *Course) bool {
		switch by {
		case CourseSortPrice:
			return a.Price < b.Price
		case CourseSortRating:
			return a.Rating < b.Rating
		case CourseSortStartDate:
			return a.StartDate.Before(b.StartDate)
		case CourseSortCreatedAt:
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return false
		}
	}
	sort.SliceStable(courses, func(i, j int) bool {
		if desc {
			return less(&courses[j], &courses[i])
		}
		return less(&courses[i], &courses[j])
	})
}

func anyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

type CourseView struct {
	Course
	Creator *UserSummary `json:"creator,omitempty"`
}
