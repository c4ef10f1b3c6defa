package seats

type SeatListQuery struct {
	Class string `form:"class" binding:"omitempty,oneof=STAGE BALCONY"`
}
