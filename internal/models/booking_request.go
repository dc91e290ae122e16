package models

// BookingRequest is the form a LIFF or web page submits before the chat flow starts.
// Every field is optional.
type BookingRequest struct {
	Hotel      string `json:"hotel"`
	Area       string `json:"area"`
	GuestName  string `json:"guestName"`
	GuestCount string `json:"guestCount"`
	Phone      string `json:"phone"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	Nights     string `json:"nights"`
	RoomCount  string `json:"roomCount"`
	PetType    string `json:"petType"`
	PetCount   string `json:"petCount"`
	UserID     string `json:"userId,omitempty"`
}
