package entity

import "time"

type Subscriber struct {
	ID        string    `yaml:"id" json:"id"`
	Email     string    `yaml:"email" json:"email"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
}
