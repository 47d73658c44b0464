package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/catalog"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/contracts"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/fetch"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/viewer"
)

// viewerSession is one browser viewer: a websocket connection driving its
// own Viewer and retrieval coordinator over the shared cache.
type viewerSession struct {
	id     string
	conn   *websocket.Conn
	viewer *viewer.Viewer
	errs   chan contracts.ErrorMessage

	mu       sync.Mutex
	location string
}

// handleViewerWS upgrades the connection and runs a viewer session until
// the browser disconnects.
func (s *Server) handleViewerWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	logCtx := s.logger.With("session", id)
	opts := s.cfg.Viewer
	opts.Logger = logCtx

	coord := fetch.NewCoordinator(s.cache, s.fetcher(), logCtx)
	sess := &viewerSession{
		id:     id,
		conn:   conn,
		viewer: viewer.New(coord, s.decoder, s.resolver, opts),
		errs:   make(chan contracts.ErrorMessage, 8),
	}
	logCtx.Info("Viewer session started.")

	updates, unsubscribe := sess.viewer.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.writeLoop(updates)
	}()

	// Block here until the connection closes or errors out.
	for {
		var msg contracts.IncomingMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if err := sess.handle(r.Context(), s.catalog, msg); err != nil {
			logCtx.Info("Rejected viewer message.", "type", msg.Type, "error", err)
			sess.sendError(err.Error())
		}
	}

	sess.viewer.Close()
	unsubscribe()
	<-done
	logCtx.Info("Viewer session ended.")
}

func (vs *viewerSession) handle(ctx context.Context, cat catalog.Catalog, msg contracts.IncomingMessage) error {
	switch msg.Type {
	case contracts.MessageTypeOpen:
		docs, err := cat.Documents(ctx, msg.Location)
		if err != nil {
			if errors.Is(err, catalog.ErrLocationNotFound) {
				return fmt.Errorf("unknown location %q", msg.Location)
			}
			return fmt.Errorf("loading menus for %q: %w", msg.Location, err)
		}
		vs.mu.Lock()
		vs.location = msg.Location
		vs.mu.Unlock()
		vs.viewer.Open(docs)
	case contracts.MessageTypeSelect:
		return vs.viewer.Select(msg.Index)
	case contracts.MessageTypePage:
		vs.viewer.Advance(msg.Delta)
	case contracts.MessageTypeResize:
		if msg.ContainerWidth > 0 {
			vs.viewer.ResizeContainer(msg.ContainerWidth)
		}
		if msg.WindowHeight > 0 {
			vs.viewer.ResizeWindow(msg.WindowHeight)
		}
	case contracts.MessageTypeClose:
		vs.viewer.Close()
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

func (vs *viewerSession) sendError(message string) {
	select {
	case vs.errs <- contracts.ErrorMessage{Type: contracts.MessageTypeError, Message: message}:
	default:
	}
}

// writeLoop is the only writer on the connection. It ends when updates is
// closed.
func (vs *viewerSession) writeLoop(updates <-chan viewer.State) {
	var sentRev uint64
	broken := false
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			msg := vs.stateMessage(st, sentRev)
			if msg.Page != nil {
				sentRev = st.PageRev
			}
			if !broken && vs.conn.WriteJSON(msg) != nil {
				broken = true
			}
		case e := <-vs.errs:
			if !broken && vs.conn.WriteJSON(e) != nil {
				broken = true
			}
		}
	}
}

func (vs *viewerSession) stateMessage(st viewer.State, sentRev uint64) contracts.StateMessage {
	vs.mu.Lock()
	location := vs.location
	vs.mu.Unlock()

	msg := contracts.StateMessage{
		Type:         contracts.MessageTypeState,
		Session:      vs.id,
		Location:     location,
		Status:       st.Status.String(),
		Tabs:         make([]contracts.Tab, 0, len(st.Tabs)),
		Active:       st.Active,
		NumPages:     st.NumPages,
		CurrentPage:  st.CurrentPage,
		Scale:        st.Scale,
		PageRev:      st.PageRev,
		CanonicalURL: st.CanonicalURL,
		Error:        st.Err,
	}
	for _, tab := range st.Tabs {
		msg.Tabs = append(msg.Tabs, contracts.Tab{Index: tab.Index, Name: tab.Name, CanonicalURL: tab.CanonicalURL})
	}
	if st.Page != nil && st.PageRev != sentRev {
		msg.Page = &contracts.PageImage{
			Number:      st.Page.Number,
			PixelWidth:  st.Page.PixelWidth,
			PixelHeight: st.Page.PixelHeight,
			PDF:         base64.StdEncoding.EncodeToString(st.Page.PDF),
		}
	}
	return msg
}
