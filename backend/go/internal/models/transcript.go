package models

import "time"

// Turn is one handled chat exchange.
type Turn struct {
	ID       string    `json:"id" bson:"_id"`
	Owner    string    `json:"owner" bson:"owner"`
	Message  string    `json:"message" bson:"message"`
	Intent   string    `json:"intent" bson:"intent"`
	Response string    `json:"response" bson:"response"`
	Topic    string    `json:"topic,omitempty" bson:"topic,omitempty"`
	Score    *float32  `json:"score,omitempty" bson:"score,omitempty"`
	At       time.Time `json:"at" bson:"at"`
}
