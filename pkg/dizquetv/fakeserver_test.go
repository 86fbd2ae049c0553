package dizquetv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"
)

type document = map[string]any

type recordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

// fakeServer is an in-memory dizqueTV API. Documents are stored exactly as
// the client sent them.
type fakeServer struct {
	t   *testing.T
	mu  sync.Mutex
	srv *httptest.Server

	channels    map[int]document
	fillers     map[string]document
	shows       map[string]document
	plexServers []document
	settings    map[string]document
	requests    []recordedRequest
	nextID      int

	// slotResult is returned by the time slot tools.
	slotResult document
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{
		t:        t,
		channels: map[int]document{},
		fillers:  map[string]document{},
		shows:    map[string]document{},
		settings: map[string]document{
			"ffmpeg-settings": {"_id": "ffmpeg-1", "ffmpegPath": "/usr/bin/ffmpeg", "threads": float64(4), "futureKnob": "keep"},
			"plex-settings":   {"_id": "plex-1", "streamPath": "plex"},
			"xmltv-settings":  {"_id": "xmltv-1", "cache": float64(12), "refresh": float64(4), "file": "/data/xmltv.xml"},
			"hdhr-settings":   {"_id": "hdhr-1", "tunerCount": float64(2), "autoDiscovery": true},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, document{"dizquetv": "1.5.0", "ffmpeg": "6.0", "nodejs": "v18.1.0"})
	})

	mux.HandleFunc("GET /api/channelNumbers", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, slices.Collect(maps.Keys(f.channels)))
	})
	mux.HandleFunc("GET /api/channel/{number}", f.withChannel(func(w http.ResponseWriter, ch document) {
		writeJSON(w, ch)
	}))
	mux.HandleFunc("GET /api/channel/programless/{number}", f.withChannel(func(w http.ResponseWriter, ch document) {
		cp := maps.Clone(ch)
		delete(cp, "programs")
		writeJSON(w, cp)
	}))
	mux.HandleFunc("GET /api/channel/programs/{number}", f.withChannel(func(w http.ResponseWriter, ch document) {
		writeJSON(w, ch["programs"])
	}))
	mux.HandleFunc("GET /api/channel/description/{number}", f.withChannel(func(w http.ResponseWriter, ch document) {
		writeJSON(w, document{"number": ch["number"], "name": ch["name"], "icon": ch["icon"], "stealth": ch["stealth"]})
	}))
	mux.HandleFunc("PUT /api/channel", f.saveChannel)
	mux.HandleFunc("POST /api/channel", f.saveChannel)
	mux.HandleFunc("DELETE /api/channel", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Number int `json:"number"`
		}
		f.decode(r, &body)
		f.mu.Lock()
		delete(f.channels, body.Number)
		f.mu.Unlock()
		writeJSON(w, document{"number": body.Number})
	})

	mux.HandleFunc("GET /api/fillers", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, summaries(f.fillers))
	})
	mux.HandleFunc("PUT /api/filler", func(w http.ResponseWriter, r *http.Request) {
		var doc document
		f.decode(r, &doc)
		f.mu.Lock()
		id := f.newID("filler")
		doc["id"] = id
		f.fillers[id] = doc
		f.mu.Unlock()
		writeJSON(w, document{"id": id})
	})
	mux.HandleFunc("GET /api/filler/{id}", f.withDoc(f.fillers, func(w http.ResponseWriter, _ *http.Request, doc document) {
		writeJSON(w, doc)
	}))
	mux.HandleFunc("POST /api/filler/{id}", f.withDoc(f.fillers, func(w http.ResponseWriter, r *http.Request, _ document) {
		var doc document
		f.decode(r, &doc)
		doc["id"] = r.PathValue("id")
		f.mu.Lock()
		f.fillers[r.PathValue("id")] = doc
		f.mu.Unlock()
		writeJSON(w, document{"id": r.PathValue("id")})
	}))
	mux.HandleFunc("DELETE /api/filler/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		delete(f.fillers, r.PathValue("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/filler/{id}/channels", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var refs []document
		for number, ch := range f.channels {
			list, _ := ch["fillerCollections"].([]any)
			for _, entry := range list {
				if ref, ok := entry.(map[string]any); ok && ref["id"] == r.PathValue("id") {
					refs = append(refs, document{"number": number, "name": ch["name"]})
				}
			}
		}
		writeJSON(w, refs)
	})

	mux.HandleFunc("GET /api/shows", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, summaries(f.shows))
	})
	mux.HandleFunc("PUT /api/show", func(w http.ResponseWriter, r *http.Request) {
		var doc document
		f.decode(r, &doc)
		f.mu.Lock()
		id := f.newID("show")
		doc["id"] = id
		f.shows[id] = doc
		f.mu.Unlock()
		writeJSON(w, document{"id": id})
	})
	mux.HandleFunc("GET /api/show/{id}", f.withDoc(f.shows, func(w http.ResponseWriter, _ *http.Request, doc document) {
		writeJSON(w, doc)
	}))
	mux.HandleFunc("POST /api/show/{id}", f.withDoc(f.shows, func(w http.ResponseWriter, r *http.Request, _ document) {
		var doc document
		f.decode(r, &doc)
		doc["id"] = r.PathValue("id")
		f.mu.Lock()
		f.shows[r.PathValue("id")] = doc
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	mux.HandleFunc("DELETE /api/show/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		delete(f.shows, r.PathValue("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /api/plex-servers", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.plexServers == nil {
			writeJSON(w, []document{})
			return
		}
		writeJSON(w, f.plexServers)
	})
	mux.HandleFunc("PUT /api/plex-servers", func(w http.ResponseWriter, r *http.Request) {
		var doc document
		f.decode(r, &doc)
		f.mu.Lock()
		doc["_id"] = f.newID("plex")
		f.plexServers = append(f.plexServers, doc)
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/plex-servers", func(w http.ResponseWriter, r *http.Request) {
		var doc document
		f.decode(r, &doc)
		f.mu.Lock()
		for i, s := range f.plexServers {
			if s["_id"] == doc["_id"] {
				f.plexServers[i] = doc
			}
		}
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("DELETE /api/plex-servers", func(w http.ResponseWriter, r *http.Request) {
		var doc document
		f.decode(r, &doc)
		f.mu.Lock()
		f.plexServers = slices.DeleteFunc(f.plexServers, func(s document) bool { return s["name"] == doc["name"] })
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/plex-servers/status", func(w http.ResponseWriter, r *http.Request) {
		var doc document
		f.decode(r, &doc)
		if doc["name"] == "offline" {
			http.Error(w, "unreachable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, document{"status": 1})
	})
	mux.HandleFunc("POST /api/plex-servers/foreignstatus", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, document{"status": -1})
	})

	for _, name := range []string{"ffmpeg-settings", "plex-settings", "xmltv-settings", "hdhr-settings"} {
		mux.HandleFunc("GET /api/"+name, func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			writeJSON(w, f.settings[name])
		})
		mux.HandleFunc("PUT /api/"+name, func(w http.ResponseWriter, r *http.Request) {
			var doc document
			f.decode(r, &doc)
			f.mu.Lock()
			f.settings[name] = doc
			f.mu.Unlock()
			writeJSON(w, doc)
		})
		mux.HandleFunc("POST /api/"+name, func(w http.ResponseWriter, r *http.Request) {
			var doc document
			f.decode(r, &doc)
			f.mu.Lock()
			f.settings[name] = document{"_id": doc["_id"], "reset": true}
			f.mu.Unlock()
			writeJSON(w, f.settings[name])
		})
	}

	slotTool := func(w http.ResponseWriter, r *http.Request) {
		var req document
		f.decode(r, &req)
		f.mu.Lock()
		result := f.slotResult
		f.mu.Unlock()
		if result == nil {
			result = document{"programs": req["programs"], "startTime": "2024-03-01T00:00:00.000Z"}
		}
		writeJSON(w, result)
	}
	mux.HandleFunc("POST /api/channel-tools/time-slots", slotTool)
	mux.HandleFunc("POST /api/channel-tools/random-slots", slotTool)

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
		f.mu.Unlock()
		r.Body = io.NopCloser(bytes.NewReader(body))
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) client(opts ...Option) *Client {
	f.t.Helper()
	c, err := New(f.srv.URL, opts...)
	if err != nil {
		f.t.Fatalf("New returned error: %v", err)
	}
	return c
}

// addChannel stores a channel directly, bypassing the client.
func (f *fakeServer) addChannel(number int, name string, programs ...Program) {
	f.t.Helper()
	ch := Channel{
		Number:            number,
		Name:              name,
		Programs:          programs,
		FillerCollections: []FillerReference{},
		Fallback:          []Program{},
		StartTime:         "2024-01-01T00:00:00.000Z",
		Duration:          TotalDuration(programs),
		Enabled:           true,
	}
	data, err := json.Marshal(ch)
	if err != nil {
		f.t.Fatalf("marshal channel: %v", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		f.t.Fatalf("unmarshal channel: %v", err)
	}
	f.mu.Lock()
	f.channels[number] = doc
	f.mu.Unlock()
}

func (f *fakeServer) channel(number int) document {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels[number]
}

func (f *fakeServer) lastRequest(method, path string) (recordedRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Method == method && f.requests[i].Path == path {
			return f.requests[i], true
		}
	}
	return recordedRequest{}, false
}

func (f *fakeServer) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, req := range f.requests {
		if req.Method == method && req.Path == path {
			n++
		}
	}
	return n
}

func (f *fakeServer) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeServer) decode(r *http.Request, v any) {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		f.t.Errorf("decode %s %s body: %v", r.Method, r.URL.Path, err)
	}
}

func (f *fakeServer) saveChannel(w http.ResponseWriter, r *http.Request) {
	var doc document
	f.decode(r, &doc)
	number, _ := doc["number"].(float64)
	f.mu.Lock()
	f.channels[int(number)] = doc
	f.mu.Unlock()
	writeJSON(w, doc)
}

func (f *fakeServer) withChannel(fn func(http.ResponseWriter, document)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, err := strconv.Atoi(r.PathValue("number"))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		f.mu.Lock()
		ch, ok := f.channels[number]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		fn(w, ch)
	}
}

func (f *fakeServer) withDoc(store map[string]document, fn func(http.ResponseWriter, *http.Request, document)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		doc, ok := store[r.PathValue("id")]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		fn(w, r, doc)
	}
}

func summaries(store map[string]document) []document {
	ids := slices.Sorted(maps.Keys(store))
	out := make([]document, 0, len(ids))
	for _, id := range ids {
		content, _ := store[id]["content"].([]any)
		out = append(out, document{"id": id, "name": store[id]["name"], "count": len(content)})
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func movie(title string, minutes int) Program {
	return Program{
		Title:     title,
		Key:       "/library/metadata/" + title,
		RatingKey: title,
		Type:      ProgramTypeMovie,
		Duration:  int64(minutes) * msPerMinute,
		Date:      "2001-01-01",
	}
}

func episode(show string, season, number, minutes int) Program {
	key := fmt.Sprintf("%s-s%de%d", show, season, number)
	return Program{
		Title:     key,
		Key:       "/library/metadata/" + key,
		RatingKey: key,
		Type:      ProgramTypeEpisode,
		ShowTitle: show,
		Season:    season,
		Episode:   number,
		Duration:  int64(minutes) * msPerMinute,
	}
}

// seqRand returns queued IntN results in order and never shuffles.
type seqRand struct {
	ints []int
}

func (r *seqRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *seqRand) Float64() float64 { return 0 }

func (r *seqRand) Shuffle(n int, swap func(i, j int)) {}
