package dizquetv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// CustomShow is a named, ordered group of programs that can be placed on a
// channel as a unit. List responses only carry ID, Name and Count; Content is
// populated by CustomShowDetails.
type CustomShow struct {
	ID      string    `json:"id,omitempty"`
	Name    string    `json:"name"`
	Count   int       `json:"count,omitempty"`
	Content []Program `json:"content,omitempty"`

	client *Client
}

// CustomShows lists every custom show.
func (c *Client) CustomShows(ctx context.Context) ([]*CustomShow, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var shows []*CustomShow
	if err := c.do(ctx, http.MethodGet, "/shows", nil, &shows); err != nil {
		return nil, err
	}
	for _, show := range shows {
		show.client = c
	}
	return shows, nil
}

// CustomShow finds a custom show by id. It returns nil when none matches.
func (c *Client) CustomShow(ctx context.Context, id string) (*CustomShow, error) {
	shows, err := c.CustomShows(ctx)
	if err != nil {
		return nil, err
	}
	for _, show := range shows {
		if show.ID == id {
			return show, nil
		}
	}
	return nil, nil
}

// CustomShowDetails fetches a custom show including its content.
func (c *Client) CustomShowDetails(ctx context.Context, id string) (*CustomShow, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: custom show id", ErrMissingParameters)
	}
	var show CustomShow
	if err := c.do(ctx, http.MethodGet, "/show/"+id, nil, &show); err != nil {
		return nil, err
	}
	if show.ID == "" {
		show.ID = id
	}
	show.Count = len(show.Content)
	show.client = c
	return &show, nil
}

// customShowPayload is the body of PUT and POST /show. Content is always
// sent so an emptied show is cleared on the server.
type customShowPayload struct {
	Name    string    `json:"name"`
	Content []Program `json:"content"`
}

func newCustomShowPayload(name string, programs []Program) customShowPayload {
	payload := customShowPayload{Name: name, Content: make([]Program, 0, len(programs))}
	for _, p := range programs {
		payload.Content = append(payload.Content, ProgramToCustomShowItem(p))
	}
	return payload
}

type createdID struct {
	ID string `json:"id"`
}

// AddCustomShow creates a custom show from programs and returns it with its
// content loaded.
func (c *Client) AddCustomShow(ctx context.Context, name string, programs []Program) (*CustomShow, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: custom show name", ErrMissingParameters)
	}
	if len(programs) == 0 {
		return nil, fmt.Errorf("%w: a custom show needs at least one program", ErrItemCreation)
	}
	for _, p := range programs {
		if err := ValidateProgram(p); err != nil {
			return nil, err
		}
	}
	var created createdID
	payload := newCustomShowPayload(name, programs)
	if err := c.do(ctx, http.MethodPut, "/show", payload, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: server returned no custom show id", ErrItemCreation)
	}
	return c.CustomShowDetails(ctx, created.ID)
}

// UpdateCustomShow applies fn to the custom show's current details and saves
// the result.
func (c *Client) UpdateCustomShow(ctx context.Context, id string, fn func(*CustomShow) error) (*CustomShow, error) {
	current, err := c.CustomShowDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(current); err != nil {
		return nil, err
	}
	payload := newCustomShowPayload(current.Name, current.Content)
	if err := c.do(ctx, http.MethodPost, "/show/"+id, payload, nil); err != nil {
		return nil, err
	}
	return c.CustomShowDetails(ctx, id)
}

// DeleteCustomShow removes a custom show.
func (c *Client) DeleteCustomShow(ctx context.Context, id string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: custom show id", ErrMissingParameters)
	}
	return c.do(ctx, http.MethodDelete, "/show/"+id, nil, nil)
}

// ExpandCustomShow returns the show's content as channel programs, fetching
// the details when the show was loaded from a list.
func (c *Client) ExpandCustomShow(ctx context.Context, show *CustomShow) ([]Program, error) {
	if show == nil {
		return nil, fmt.Errorf("%w: custom show", ErrMissingParameters)
	}
	if len(show.Content) == 0 {
		details, err := c.CustomShowDetails(ctx, show.ID)
		if err != nil {
			return nil, err
		}
		show = details
	}
	return CustomShowToPrograms(show), nil
}

func (s *CustomShow) bound() error {
	if s == nil || s.client == nil || s.ID == "" {
		return &NotRemoteObjectError{Kind: "custom show"}
	}
	return nil
}

// Details fetches this show's content.
func (s *CustomShow) Details(ctx context.Context) (*CustomShow, error) {
	if err := s.bound(); err != nil {
		return nil, err
	}
	return s.client.CustomShowDetails(ctx, s.ID)
}

// Refresh reloads the show in place.
func (s *CustomShow) Refresh(ctx context.Context) error {
	details, err := s.Details(ctx)
	if err != nil {
		return err
	}
	*s = *details
	return nil
}

func (s *CustomShow) edit(ctx context.Context, fn func([]Program) ([]Program, error)) error {
	if err := s.bound(); err != nil {
		return err
	}
	updated, err := s.client.UpdateCustomShow(ctx, s.ID, func(show *CustomShow) error {
		content, err := fn(clonePrograms(show.Content))
		if err != nil {
			return err
		}
		show.Content = content
		return nil
	})
	if err != nil {
		return err
	}
	*s = *updated
	return nil
}

// AddPrograms appends programs to the show.
func (s *CustomShow) AddPrograms(ctx context.Context, programs ...Program) error {
	if len(programs) == 0 {
		return invalidArgument("no programs to add")
	}
	for _, p := range programs {
		if err := ValidateProgram(p); err != nil {
			return err
		}
	}
	return s.edit(ctx, func(content []Program) ([]Program, error) {
		return append(content, programs...), nil
	})
}

// DeleteProgram removes every item titled title.
func (s *CustomShow) DeleteProgram(ctx context.Context, title string) error {
	return s.edit(ctx, func(content []Program) ([]Program, error) {
		return filterPrograms(content, func(p Program) bool { return p.Title != title }), nil
	})
}

func (s *CustomShow) DeleteAllPrograms(ctx context.Context) error {
	return s.edit(ctx, func([]Program) ([]Program, error) { return []Program{}, nil })
}

func (s *CustomShow) SortByDuration(ctx context.Context) error {
	return s.edit(ctx, func(content []Program) ([]Program, error) { return SortByDuration(content), nil })
}

func (s *CustomShow) SortRandomly(ctx context.Context) error {
	if err := s.bound(); err != nil {
		return err
	}
	r := s.client.rand
	return s.edit(ctx, func(content []Program) ([]Program, error) { return SortRandomly(content, r), nil })
}

func (s *CustomShow) RemoveDuplicates(ctx context.Context) error {
	return s.edit(ctx, func(content []Program) ([]Program, error) { return RemoveDuplicates(content), nil })
}

// Delete removes the show from the server.
func (s *CustomShow) Delete(ctx context.Context) error {
	if err := s.bound(); err != nil {
		return err
	}
	return s.client.DeleteCustomShow(ctx, s.ID)
}

// ProgramToCustomShowItem adds the durationStr and commercials fields custom
// show content carries.
func ProgramToCustomShowItem(p Program) Program {
	item := p.clone()
	item.CustomShowID = ""
	item.CustomShowName = ""
	item.CustomOrder = 0
	if item.Extra == nil {
		item.Extra = make(map[string]json.RawMessage, 2)
	}
	durationStr, _ := json.Marshal(DurationString(p.Duration))
	item.Extra["durationStr"] = durationStr
	if _, ok := item.Extra["commercials"]; !ok {
		item.Extra["commercials"] = json.RawMessage("[]")
	}
	return item
}

// CustomShowToPrograms tags the show's content so it can be placed on a
// channel as a unit.
func CustomShowToPrograms(show *CustomShow) []Program {
	if show == nil {
		return nil
	}
	out := make([]Program, 0, len(show.Content))
	for i, item := range show.Content {
		p := item.clone()
		delete(p.Extra, "durationStr")
		delete(p.Extra, "commercials")
		if len(p.Extra) == 0 {
			p.Extra = nil
		}
		p.CustomShowID = show.ID
		p.CustomShowName = show.Name
		p.CustomOrder = i
		out = append(out, p)
	}
	return out
}

// LineupItem is one entry of a parsed lineup: either a single program or a
// run of consecutive programs that belong to the same custom show.
type LineupItem struct {
	Program    *Program
	CustomShow *CustomShow
}

// ParseLineup groups consecutive custom show programs into CustomShow
// entries. The returned shows are not bound to a client.
func ParseLineup(programs []Program) []LineupItem {
	var items []LineupItem
	var current *CustomShow
	flush := func() {
		if current != nil {
			current.Count = len(current.Content)
			items = append(items, LineupItem{CustomShow: current})
			current = nil
		}
	}
	for i := range programs {
		p := programs[i]
		if !p.IsCustomShowItem() {
			flush()
			items = append(items, LineupItem{Program: &p})
			continue
		}
		if current != nil && current.ID != p.CustomShowID {
			flush()
		}
		if current == nil {
			current = &CustomShow{ID: p.CustomShowID, Name: p.CustomShowName}
		}
		current.Content = append(current.Content, p)
	}
	flush()
	return items
}
