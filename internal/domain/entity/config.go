package entity

// ConfigFlag is a named boolean switch stored in the database. The
// notification kill-switch lives here so it can be flipped without a deploy.
type ConfigFlag struct {
	ID    uint   `gorm:"primaryKey"`
	Title string `gorm:"uniqueIndex;not null"`
	Flag  bool   `gorm:"not null;default:false"`
}
