package vtodo

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/taskjournal/internal/client/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(t time.Time) *time.Time { return &t }

func TestEncodeDecode(t *testing.T) {
	c := NewCodec("-//taskjournal//test//EN")
	c.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		task models.Task
	}{
		{"minimal", models.Task{RemoteID: "r1", Title: "buy milk"}},
		{"full", models.Task{
			RemoteID:       "r2",
			Title:          "call; bob, today",
			Notes:          "line one\nline two",
			Priority:       3,
			DueAt:          ptr(time.Date(2026, 2, 3, 10, 30, 0, 0, time.UTC)),
			CompletedAt:    ptr(time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)),
			ParentRemoteID: "r1",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := c.Encode(tt.task)
			require.NoError(t, err)
			assert.Contains(t, payload, "BEGIN:VTODO")
			assert.Contains(t, payload, "PRODID:-//taskjournal//test//EN")

			got, err := c.Decode(payload)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.task, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}

			id, err := c.RemoteID(payload)
			require.NoError(t, err)
			assert.Equal(t, tt.task.RemoteID, id)
		})
	}
}

func TestEncode_RequiresRemoteID(t *testing.T) {
	_, err := NewCodec("p").Encode(models.Task{Title: "x"})
	assert.ErrorIs(t, err, ErrNoRemoteID)
}

func TestDecode_StatusCompletedWithoutDate(t *testing.T) {
	payload := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//other//EN",
		"BEGIN:VTODO",
		"UID:abc",
		"DTSTAMP:20260101T120000Z",
		"SUMMARY:done elsewhere",
		"STATUS:COMPLETED",
		"END:VTODO",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	got, err := NewCodec("p").Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.RemoteID)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), *got.CompletedAt)
}

func TestDecode_Errors(t *testing.T) {
	c := NewCodec("p")

	_, err := c.Decode("not a calendar")
	assert.Error(t, err)

	noTodo := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:x\r\nEND:VCALENDAR\r\n"
	_, err = c.Decode(noTodo)
	assert.ErrorIs(t, err, ErrNoTodo)
	_, err = c.RemoteID(noTodo)
	assert.ErrorIs(t, err, ErrNoTodo)
}
