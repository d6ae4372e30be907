// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Stage API.

# Route Registration

NewServices wires the long-lived components around a store and hub, and
NewRouter registers every endpoint on an http.ServeMux:

	svc := router.NewServices(ctx, st, hub, cfg)
	mux := router.NewRouter(svc)

# Endpoints

Health:

	GET /health - database ping

Events:

	POST /events               - Create event (returns admin_code once)
	GET  /events/{ref}         - By id or access code
	POST /events/{id}/status   - active / paused / ended (admin)
	GET  /events/{id}/qr.png   - Join link QR code
	GET  /events/{ref}/screen  - Reconciled presentation state

Questions:

	GET    /events/{id}/questions    - ?view=admin for moderation order
	POST   /events/{id}/questions    - Ask
	POST   /questions/{id}/upvote    - Upvote
	POST   /questions/{id}/answered  - Toggle answered (admin)
	POST   /questions/{id}/featured  - Toggle featured (admin)
	DELETE /questions/{id}           - Delete (admin)

Polls (admin unless noted):

	POST   /events/{id}/polls     - Create draft
	GET    /events/{id}/polls     - List, newest first (public)
	GET    /polls/{id}            - Poll with questions and options (public)
	PUT    /polls/{id}            - Replace draft
	POST   /polls/{id}/launch     - Draft to active, ending any other active poll
	POST   /polls/{id}/end        - Active to ended
	DELETE /polls/{id}            - Delete in any state

Responses and results:

	POST /polls/{id}/responses    - Submit answers (X-Respondent-ID)
	GET  /polls/{id}/my-response  - Advisory duplicate check
	GET  /polls/{id}/results      - Tallies
	GET  /polls/{id}/results.xlsx - Workbook export (admin)

Presentation display:

	POST /events/{id}/display - Set directive (admin)
	GET  /events/{id}/display - Active directive or welcome default

Realtime:

	GET /realtime/{channel}?events=..&tables=..&event_id=.. - WebSocket

Admin routes check X-Admin-Code against the owning event.
*/
package router
