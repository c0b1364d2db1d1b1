// internal/domain/exercise.go
package domain

// Exercise is one entry of a workout prescription.
type Exercise struct {
	Name     string `bson:"name" json:"name"`
	Sets     int    `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps     string `bson:"reps,omitempty" json:"reps,omitempty"` // e.g. "8-12"
	Load     string `bson:"load,omitempty" json:"load,omitempty"`
	Rest     string `bson:"rest,omitempty" json:"rest,omitempty"`
	Notes    string `bson:"notes,omitempty" json:"notes,omitempty"`
	VideoURL string `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
}
