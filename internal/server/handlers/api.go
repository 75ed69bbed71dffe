package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/calendar"
	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/danielgtaylor/huma/v2"
)

// APIHandler serves the read-only JSON API used by the calendar widget and
// the announcement popup.
type APIHandler struct {
	s Server
}

func RegisterAPI(api huma.API, s Server) {
	h := &APIHandler{s: s}

	huma.Get(api, "/events", h.HandleListEvents, func(o *huma.Operation) {
		o.Summary = "Upcoming events"
		o.Tags = []string{"events"}
	})
	huma.Get(api, "/events/{id}", h.HandleGetEvent, func(o *huma.Operation) {
		o.Summary = "Event details"
		o.Tags = []string{"events"}
	})
	huma.Get(api, "/calendar", h.HandleCalendar, func(o *huma.Operation) {
		o.Summary = "Events of one month as a Monday-first grid"
		o.Tags = []string{"events"}
	})
	huma.Get(api, "/announcement", h.HandleAnnouncement, func(o *huma.Operation) {
		o.Summary = "Currently active announcement"
		o.Tags = []string{"announcements"}
	})
}

type EventSummary struct {
	ID                   uint      `json:"id"`
	Title                string    `json:"title"`
	Date                 time.Time `json:"date"`
	Location             string    `json:"location"`
	Category             string    `json:"category"`
	CategoryLabel        string    `json:"category_label"`
	Image                string    `json:"image,omitempty" doc:"Image URL"`
	IsPast               bool      `json:"is_past"`
	AcceptsRegistrations bool      `json:"accepts_registrations"`
	InvitationOnly       bool      `json:"invitation_only"`
	MaxParticipants      *int      `json:"max_participants,omitempty"`
	URL                  string    `json:"url"`
}

func (h *APIHandler) summary(e database.Event, now time.Time) EventSummary {
	var image string
	if e.Image != "" {
		image = h.s.GetStorage().URL(e.Image)
	}
	return EventSummary{
		ID:                   e.ID,
		Title:                e.Title,
		Date:                 e.Date,
		Location:             e.Location,
		Category:             e.Category,
		CategoryLabel:        e.CategoryLabel(),
		Image:                image,
		IsPast:               e.IsPast(now),
		AcceptsRegistrations: e.AcceptsRegistrations(now),
		InvitationOnly:       e.InvitationOnly,
		MaxParticipants:      e.MaxParticipants,
		URL:                  fmt.Sprintf("/veranstaltung/%d", e.ID),
	}
}

type ListEventsInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"50" default:"8" doc:"Maximum number of events"`
}

type ListEventsOutput struct {
	Body []EventSummary
}

func (h *APIHandler) HandleListEvents(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
	now := time.Now()
	events, err := h.s.GetDB().UpcomingEvents(ctx, now, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load events", err)
	}

	out := &ListEventsOutput{Body: make([]EventSummary, 0, len(events))}
	for _, e := range events {
		out.Body = append(out.Body, h.summary(e, now))
	}
	return out, nil
}

type GetEventInput struct {
	ID uint `path:"id" minimum:"1"`
}

type EventDetailBody struct {
	EventSummary
	Description string `json:"description"`
	Confirmed   int64  `json:"confirmed"`
	SpotsLeft   *int   `json:"spots_left,omitempty" doc:"Empty when the event has no capacity limit"`
}

type GetEventOutput struct {
	Body EventDetailBody
}

func (h *APIHandler) HandleGetEvent(ctx context.Context, input *GetEventInput) (*GetEventOutput, error) {
	event, err := h.s.GetDB().GetEvent(ctx, input.ID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, huma.Error404NotFound("Event not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load event", err)
	}

	confirmed, err := h.s.GetDB().ConfirmedCount(ctx, event.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to count registrations", err)
	}

	body := EventDetailBody{
		EventSummary: h.summary(*event, time.Now()),
		Description:  event.Description,
		Confirmed:    confirmed,
	}
	if event.MaxParticipants != nil {
		left := max(*event.MaxParticipants-int(confirmed), 0)
		body.SpotsLeft = &left
	}
	return &GetEventOutput{Body: body}, nil
}

type CalendarInput struct {
	Year  int `query:"year" doc:"Defaults to the current year"`
	Month int `query:"month" doc:"Defaults to the current month, values outside 1-12 roll over"`
}

type CalendarDay struct {
	Day     int            `json:"day" doc:"0 for padding cells"`
	IsToday bool           `json:"is_today"`
	Events  []EventSummary `json:"events"`
}

type CalendarMonth struct {
	Year      int                `json:"year"`
	Month     int                `json:"month"`
	MonthName string             `json:"month_name"`
	Days      [7]string          `json:"day_names"`
	Weeks     [][7]CalendarDay   `json:"weeks"`
	Prev      calendar.YearMonth `json:"prev"`
	Next      calendar.YearMonth `json:"next"`
}

type CalendarOutput struct {
	Body CalendarMonth
}

func (h *APIHandler) HandleCalendar(ctx context.Context, input *CalendarInput) (*CalendarOutput, error) {
	loc := h.s.GetConfig().Location
	now := time.Now()
	today := now.In(loc)

	year, month := input.Year, input.Month
	if year == 0 {
		year = today.Year()
	}
	if month == 0 {
		month = int(today.Month())
	}
	ym := calendar.Normalize(year, month)

	start, end := ym.Range(loc)
	events, err := h.s.GetDB().EventsBetween(ctx, start, end)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load events", err)
	}

	grid := calendar.Build(ym, today, events, func(e database.Event) int {
		return e.Date.In(loc).Day()
	})

	body := CalendarMonth{
		Year:      grid.Year,
		Month:     grid.Month,
		MonthName: grid.Name(),
		Days:      calendar.DayNames,
		Weeks:     make([][7]CalendarDay, len(grid.Weeks)),
		Prev:      grid.Prev,
		Next:      grid.Next,
	}
	for i, week := range grid.Weeks {
		for j, day := range week {
			cell := CalendarDay{Day: day.Day, IsToday: day.IsToday, Events: []EventSummary{}}
			for _, e := range day.Events {
				cell.Events = append(cell.Events, h.summary(e, now))
			}
			body.Weeks[i][j] = cell
		}
	}
	return &CalendarOutput{Body: body}, nil
}

type AnnouncementBody struct {
	ID               uint      `json:"id"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	Type             string    `json:"type"`
	TypeLabel        string    `json:"type_label"`
	Image            string    `json:"image,omitempty"`
	BackgroundMusic  string    `json:"background_music,omitempty"`
	EndDate          time.Time `json:"end_date"`
	AutoCloseSeconds int       `json:"auto_close_seconds" doc:"0 keeps the popup open"`
	BackgroundColor  string    `json:"background_color"`
	TextColor        string    `json:"text_color"`
}

type AnnouncementOutput struct {
	Body AnnouncementBody
}

func (h *APIHandler) HandleAnnouncement(ctx context.Context, _ *struct{}) (*AnnouncementOutput, error) {
	a, err := h.s.GetDB().CurrentAnnouncement(ctx, time.Now())
	if errors.Is(err, database.ErrNotFound) {
		return nil, huma.Error404NotFound("No active announcement")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load announcement", err)
	}

	media := func(key string) string {
		if key == "" {
			return ""
		}
		return h.s.GetStorage().URL(key)
	}
	return &AnnouncementOutput{Body: AnnouncementBody{
		ID:               a.ID,
		Title:            a.Title,
		Message:          a.Message,
		Type:             a.Type,
		TypeLabel:        a.TypeLabel(),
		Image:            media(a.Image),
		BackgroundMusic:  media(a.BackgroundMusic),
		EndDate:          a.EndDate,
		AutoCloseSeconds: a.AutoCloseSeconds,
		BackgroundColor:  a.BackgroundColor,
		TextColor:        a.TextColor,
	}}, nil
}
