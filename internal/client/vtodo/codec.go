// Package vtodo converts tasks to and from iCalendar VTODO text, the
// payload carried inside journal entries.
package vtodo

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskjournal/internal/client/models"
	"github.com/emersion/go-ical"
)

var (
	ErrNoTodo     = errors.New("calendar has no VTODO")
	ErrNoRemoteID = errors.New("task has no remote id")
)

const (
	statusNeedsAction = "NEEDS-ACTION"
	statusCompleted   = "COMPLETED"
)

type Codec struct {
	prodID string
	now    func() time.Time
}

// NewCodec returns a codec that stamps prodID into every calendar it writes.
func NewCodec(prodID string) *Codec {
	return &Codec{prodID: prodID, now: time.Now}
}

func (c *Codec) Encode(t models.Task) (string, error) {
	if t.RemoteID == "" {
		return "", ErrNoRemoteID
	}

	todo := ical.NewComponent(ical.CompToDo)
	todo.Props.SetText(ical.PropUID, t.RemoteID)
	todo.Props.SetDateTime(ical.PropDateTimeStamp, c.now().UTC())
	todo.Props.SetText(ical.PropSummary, t.Title)
	if t.Notes != "" {
		todo.Props.SetText(ical.PropDescription, t.Notes)
	}
	if t.Priority > 0 {
		prop := ical.NewProp(ical.PropPriority)
		prop.Value = strconv.Itoa(t.Priority)
		todo.Props.Set(prop)
	}
	if t.DueAt != nil {
		todo.Props.SetDateTime(ical.PropDue, t.DueAt.UTC())
	}
	if t.CompletedAt != nil {
		todo.Props.SetText(ical.PropStatus, statusCompleted)
		todo.Props.SetDateTime(ical.PropCompleted, t.CompletedAt.UTC())
	} else {
		todo.Props.SetText(ical.PropStatus, statusNeedsAction)
	}
	if t.ParentRemoteID != "" {
		todo.Props.SetText(ical.PropRelatedTo, t.ParentRemoteID)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, c.prodID)
	cal.Children = append(cal.Children, todo)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("encode vtodo %s: %w", t.RemoteID, err)
	}
	return buf.String(), nil
}

func (c *Codec) Decode(payload string) (models.Task, error) {
	todo, err := parse(payload)
	if err != nil {
		return models.Task{}, err
	}

	var t models.Task
	if t.RemoteID, err = todo.Props.Text(ical.PropUID); err != nil {
		return models.Task{}, fmt.Errorf("vtodo uid: %w", err)
	}
	if t.Title, err = todo.Props.Text(ical.PropSummary); err != nil {
		return models.Task{}, fmt.Errorf("vtodo summary: %w", err)
	}
	if t.Notes, err = todo.Props.Text(ical.PropDescription); err != nil {
		return models.Task{}, fmt.Errorf("vtodo description: %w", err)
	}
	if t.ParentRemoteID, err = todo.Props.Text(ical.PropRelatedTo); err != nil {
		return models.Task{}, fmt.Errorf("vtodo related-to: %w", err)
	}
	if prop := todo.Props.Get(ical.PropPriority); prop != nil {
		if t.Priority, err = prop.Int(); err != nil {
			return models.Task{}, fmt.Errorf("vtodo priority: %w", err)
		}
	}
	if t.DueAt, err = dateTime(todo, ical.PropDue); err != nil {
		return models.Task{}, err
	}
	if t.CompletedAt, err = dateTime(todo, ical.PropCompleted); err != nil {
		return models.Task{}, err
	}

	if t.CompletedAt == nil {
		status, _ := todo.Props.Text(ical.PropStatus)
		if strings.EqualFold(status, statusCompleted) {
			completed := time.Unix(0, 0).UTC()
			if stamp, err := dateTime(todo, ical.PropDateTimeStamp); err == nil && stamp != nil {
				completed = *stamp
			}
			t.CompletedAt = &completed
		}
	}
	return t, nil
}

// RemoteID returns the UID of the task in payload.
func (c *Codec) RemoteID(payload string) (string, error) {
	todo, err := parse(payload)
	if err != nil {
		return "", err
	}
	uid, err := todo.Props.Text(ical.PropUID)
	if err != nil {
		return "", fmt.Errorf("vtodo uid: %w", err)
	}
	if uid == "" {
		return "", ErrNoRemoteID
	}
	return uid, nil
}

func parse(payload string) (*ical.Component, error) {
	cal, err := ical.NewDecoder(strings.NewReader(payload)).Decode()
	if err != nil {
		return nil, fmt.Errorf("decode vtodo: %w", err)
	}
	for _, child := range cal.Children {
		if child.Name == ical.CompToDo {
			return child, nil
		}
	}
	return nil, ErrNoTodo
}

func dateTime(comp *ical.Component, name string) (*time.Time, error) {
	prop := comp.Props.Get(name)
	if prop == nil {
		return nil, nil
	}
	v, err := prop.DateTime(time.UTC)
	if err != nil {
		return nil, fmt.Errorf("vtodo %s: %w", strings.ToLower(name), err)
	}
	v = v.UTC()
	return &v, nil
}
