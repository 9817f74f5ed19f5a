package models

import "time"

type WishlistItem struct {
	UserID   string    `json:"user_id" db:"user_id"`
	CourseID string    `json:"course_id" db:"course_id"`
	AddedAt  time.Time `json:"added_at" db:"added_at"`
}

type WishlistCourse struct {
	CourseID   string    `json:"course_id"`
	CourseName string    `json:"course_name"`
	Price      float64   `json:"price"`
	AddedAt    time.Time `json:"added_at"`
}

type Wishlist struct {
	UserID  string           `json:"user_id"`
	Courses []WishlistCourse `json:"courses"`
}
