package transitradar

// Movement is one normalized vehicle observation taken from an upstream
// feed, regardless of which source produced it.
type Movement struct {
	TripID    string  `json:"tripId"`
	Name      string  `json:"name"`
	Direction string  `json:"direction"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Category  string  `json:"category"`
}

// BoundingBox is one fixed geographic tile of the radar query area.
// The tile set is loaded at startup and never mutated.
type BoundingBox struct {
	ID    string  `yaml:"id" validate:"required"`
	North float64 `yaml:"north" validate:"gte=-90,lte=90"`
	South float64 `yaml:"south" validate:"gte=-90,lte=90"`
	East  float64 `yaml:"east" validate:"gte=-180,lte=180"`
	West  float64 `yaml:"west" validate:"gte=-180,lte=180"`
}
