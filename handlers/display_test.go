// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/danielhkuo/stage/auth"
	"github.com/danielhkuo/stage/db"
	"github.com/danielhkuo/stage/display"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/realtime"
	"github.com/danielhkuo/stage/testutil"
)

func strPtr(s string) *string { return &s }

func TestSetDisplay(t *testing.T) {
	f := setup(t)
	eventID, _, adminCode := testutil.CreateTestEvent(t, f.conn, models.EventActive)
	otherID, _, _ := testutil.CreateTestEvent(t, f.conn, models.EventActive)

	questionID := testutil.CreateTestQuestion(t, f.conn, eventID, "Mine", 0)
	foreignQuestion := testutil.CreateTestQuestion(t, f.conn, otherID, "Theirs", 0)
	pollID, _, _ := f.choicePoll(t, eventID, models.StatusEnded)

	tests := []struct {
		name       string
		code       string
		body       models.SetDisplayRequest
		wantStatus int
		wantType   models.DisplayType
	}{
		{"no admin code", "", models.SetDisplayRequest{DisplayType: models.DisplayQRCode}, http.StatusUnauthorized, ""},
		{"qr code", adminCode, models.SetDisplayRequest{DisplayType: models.DisplayQRCode}, http.StatusOK, models.DisplayQRCode},
		{"question", adminCode, models.SetDisplayRequest{DisplayType: models.DisplayQuestion, QuestionID: &questionID}, http.StatusOK, models.DisplayQuestion},
		{"question without id", adminCode, models.SetDisplayRequest{DisplayType: models.DisplayQuestion}, http.StatusBadRequest, ""},
		{"foreign question", adminCode, models.SetDisplayRequest{DisplayType: models.DisplayQuestion, QuestionID: &foreignQuestion}, http.StatusBadRequest, ""},
		{"unknown question", adminCode, models.SetDisplayRequest{DisplayType: models.DisplayQuestion, QuestionID: strPtr(auth.NewID())}, http.StatusBadRequest, ""},
		{"blank message", adminCode, models.SetDisplayRequest{DisplayType: models.DisplayCustomMessage, CustomMessage: strPtr("  ")}, http.StatusBadRequest, ""},
		{"message", adminCode, models.SetDisplayRequest{DisplayType: models.DisplayCustomMessage, CustomMessage: strPtr("Break until 3pm")}, http.StatusOK, models.DisplayCustomMessage},
		{"unknown type", adminCode, models.SetDisplayRequest{DisplayType: "confetti"}, http.StatusBadRequest, ""},
		{"poll results", adminCode, models.SetDisplayRequest{DisplayType: models.DisplayPollResults, PollID: &pollID}, http.StatusOK, models.DisplayPollResults},
		{"active poll", adminCode, models.SetDisplayRequest{DisplayType: models.DisplayActivePoll}, http.StatusOK, models.DisplayActivePoll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/events/"+eventID+"/display", tt.body, testutil.AdminHeaders(tt.code))
			w := serve(f.displays.SetDisplay, req, "id", eventID)
			testutil.AssertStatus(t, w, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var d models.Display
			testutil.AssertJSON(t, w, &d)
			if d.Type() != tt.wantType || !d.IsActive || d.EventID != eventID {
				t.Errorf("unexpected display %+v", d)
			}
		})
	}

	if n := testutil.CountActive(t, f.conn, db.TableDisplay, eventID); n != 1 {
		t.Errorf("expected exactly one active display, got %d", n)
	}

	// one presentation_update per accepted change, presentation channel only
	calls := f.bus.Calls()
	if len(calls) != 5 {
		t.Fatalf("expected 5 broadcasts, got %d", len(calls))
	}
	for _, c := range calls {
		if c.Channel != realtime.PresentationChannel(eventID) || c.Event != realtime.EventPresentationUpdate {
			t.Errorf("unexpected broadcast %s/%s", c.Channel, c.Event)
		}
	}
	last, ok := calls[4].Payload.(display.Update)
	if !ok || last.DisplayType != models.DisplayActivePoll || last.PollID != nil {
		t.Errorf("unexpected payload %#v", calls[4].Payload)
	}
}

func TestGetDisplay(t *testing.T) {
	f := setup(t)
	eventID, _, _ := testutil.CreateTestEvent(t, f.conn, models.EventActive)

	w := serve(f.displays.GetDisplay, testutil.MakeRequest("GET", "/", nil, nil), "id", eventID)
	testutil.AssertStatus(t, w, http.StatusOK)

	var d models.Display
	testutil.AssertJSON(t, w, &d)
	if d.Type() != models.DisplayWelcome || d.ID != "" {
		t.Errorf("expected welcome default, got %+v", d)
	}

	if _, err := f.displays.displays.Set(t.Context(), eventID, models.CustomMessage{Text: "Hi"}); err != nil {
		t.Fatal(err)
	}
	w = serve(f.displays.GetDisplay, testutil.MakeRequest("GET", "/", nil, nil), "id", eventID)
	testutil.AssertJSON(t, w, &d)
	if d.Directive != (models.CustomMessage{Text: "Hi"}) {
		t.Errorf("expected custom message, got %+v", d)
	}

	w = serve(f.displays.GetDisplay, testutil.MakeRequest("GET", "/", nil, nil), "id", auth.NewID())
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
