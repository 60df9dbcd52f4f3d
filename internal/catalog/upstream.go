package catalog

import "studyroom-backend/internal/model"

// pageResponse models one page of the upstream timetable API.
type pageResponse struct {
	Code int `json:"code"`
	Data struct {
		Page     int            `json:"page"`
		PageSize int            `json:"pageSize"`
		Total    int            `json:"total"`
		Items    []upstreamSlot `json:"items"`
	} `json:"data"`
}

type upstreamSlot struct {
	Room        string `json:"room"`
	Campus      string `json:"campus"`
	Date        string `json:"date"`
	TimeSlot    string `json:"timeSlot"`
	Description string `json:"description"`
}

func (u upstreamSlot) descriptor() model.Descriptor {
	return model.Descriptor{
		RoomID:      u.Room,
		Campus:      u.Campus,
		Date:        u.Date,
		TimeRange:   u.TimeSlot,
		Description: u.Description,
	}
}
