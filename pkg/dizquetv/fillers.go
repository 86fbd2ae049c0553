package dizquetv

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// FillerList is a pool of short media the server plays during flex time.
// List responses only carry ID, Name and Count.
type FillerList struct {
	ID      string    `json:"id,omitempty"`
	Name    string    `json:"name"`
	Count   int       `json:"count,omitempty"`
	Content []Program `json:"content"`

	client *Client
}

// FillerListOptions describes a filler list to create.
type FillerListOptions struct {
	Name    string
	Content []Program
	// HandleErrors replaces an empty content list with a single block of
	// flex time instead of failing.
	HandleErrors bool
}

// FillerLists lists every filler list.
func (c *Client) FillerLists(ctx context.Context) ([]*FillerList, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var lists []*FillerList
	if err := c.do(ctx, http.MethodGet, "/fillers", nil, &lists); err != nil {
		return nil, err
	}
	for _, list := range lists {
		list.client = c
	}
	return lists, nil
}

// FillerList fetches a filler list with its content.
func (c *Client) FillerList(ctx context.Context, id string) (*FillerList, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: filler list id", ErrMissingParameters)
	}
	var list FillerList
	if err := c.do(ctx, http.MethodGet, "/filler/"+id, nil, &list); err != nil {
		return nil, err
	}
	if list.ID == "" {
		list.ID = id
	}
	list.Count = len(list.Content)
	list.client = c
	return &list, nil
}

// FillerListByName returns the first filler list called name, or nil.
func (c *Client) FillerListByName(ctx context.Context, name string) (*FillerList, error) {
	lists, err := c.FillerLists(ctx)
	if err != nil {
		return nil, err
	}
	for _, list := range lists {
		if list.Name == name {
			return list, nil
		}
	}
	return nil, nil
}

// FillerListChannels returns the channels that use a filler list.
func (c *Client) FillerListChannels(ctx context.Context, id string) ([]*Channel, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var refs []struct {
		Number int `json:"number"`
	}
	if err := c.do(ctx, http.MethodGet, "/filler/"+id+"/channels", nil, &refs); err != nil {
		return nil, err
	}
	channels := make([]*Channel, 0, len(refs))
	for _, ref := range refs {
		ch, err := c.Channel(ctx, ref.Number)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// AddFillerList creates a filler list and returns it as stored.
func (c *Client) AddFillerList(ctx context.Context, opts FillerListOptions) (*FillerList, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	content := clonePrograms(opts.Content)
	if len(content) == 0 {
		if !opts.HandleErrors {
			return nil, fmt.Errorf("%w: a filler list needs at least one program", ErrChannelCreation)
		}
		content = []Program{OfflineProgram(DefaultOfflineDuration)}
	}
	for _, p := range content {
		if err := ValidateFiller(p); err != nil {
			return nil, err
		}
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		existing, err := c.FillerLists(ctx)
		if err != nil {
			return nil, err
		}
		name = fmt.Sprintf("New List %d", len(existing)+1)
	}

	var created createdID
	payload := FillerList{Name: name, Content: content}
	if err := c.do(ctx, http.MethodPut, "/filler", payload, &created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: server returned no filler list id", ErrChannelCreation)
	}
	return c.FillerList(ctx, created.ID)
}

// UpdateFillerList applies fn to the current filler list and saves it.
func (c *Client) UpdateFillerList(ctx context.Context, id string, fn func(*FillerList) error) (*FillerList, error) {
	current, err := c.FillerList(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(current); err != nil {
		return nil, err
	}
	payload := FillerList{ID: current.ID, Name: current.Name, Content: current.Content}
	if err := c.do(ctx, http.MethodPost, "/filler/"+id, payload, nil); err != nil {
		return nil, err
	}
	return c.FillerList(ctx, id)
}

// DeleteFillerList removes a filler list. Channels that reference it keep a
// dangling entry; use (*FillerList).Delete to detach it first.
func (c *Client) DeleteFillerList(ctx context.Context, id string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: filler list id", ErrMissingParameters)
	}
	return c.do(ctx, http.MethodDelete, "/filler/"+id, nil, nil)
}

func (f *FillerList) bound() error {
	if f == nil || f.client == nil || f.ID == "" {
		return &NotRemoteObjectError{Kind: "filler list"}
	}
	return nil
}

// Refresh reloads the filler list in place.
func (f *FillerList) Refresh(ctx context.Context) error {
	if err := f.bound(); err != nil {
		return err
	}
	fresh, err := f.client.FillerList(ctx, f.ID)
	if err != nil {
		return err
	}
	*f = *fresh
	return nil
}

// Channels returns the channels using this filler list.
func (f *FillerList) Channels(ctx context.Context) ([]*Channel, error) {
	if err := f.bound(); err != nil {
		return nil, err
	}
	return f.client.FillerListChannels(ctx, f.ID)
}

func (f *FillerList) edit(ctx context.Context, fn func([]Program) ([]Program, error)) error {
	if err := f.bound(); err != nil {
		return err
	}
	updated, err := f.client.UpdateFillerList(ctx, f.ID, func(list *FillerList) error {
		content, err := fn(clonePrograms(list.Content))
		if err != nil {
			return err
		}
		list.Content = content
		return nil
	})
	if err != nil {
		return err
	}
	*f = *updated
	return nil
}

// AddFillers appends items to the list.
func (f *FillerList) AddFillers(ctx context.Context, items ...Program) error {
	if len(items) == 0 {
		return invalidArgument("no filler items to add")
	}
	for _, item := range items {
		if err := ValidateFiller(item); err != nil {
			return err
		}
	}
	return f.edit(ctx, func(content []Program) ([]Program, error) {
		return append(content, items...), nil
	})
}

// AddFiller appends a single item.
func (f *FillerList) AddFiller(ctx context.Context, item Program) error {
	return f.AddFillers(ctx, item)
}

// UpdateFiller applies fn to every item titled title.
func (f *FillerList) UpdateFiller(ctx context.Context, title string, fn func(*Program)) error {
	return f.edit(ctx, func(content []Program) ([]Program, error) {
		found := false
		for i := range content {
			if content[i].Title == title {
				fn(&content[i])
				found = true
			}
		}
		if !found {
			return nil, invalidArgument("filler %q is not in the list", title)
		}
		return content, nil
	})
}

// DeleteFiller removes every item titled title.
func (f *FillerList) DeleteFiller(ctx context.Context, title string) error {
	return f.edit(ctx, func(content []Program) ([]Program, error) {
		return filterPrograms(content, func(p Program) bool { return p.Title != title }), nil
	})
}

func (f *FillerList) DeleteAllFillers(ctx context.Context) error {
	return f.edit(ctx, func([]Program) ([]Program, error) { return []Program{}, nil })
}

func (f *FillerList) SortByDuration(ctx context.Context) error {
	return f.edit(ctx, func(content []Program) ([]Program, error) { return SortByDuration(content), nil })
}

func (f *FillerList) SortRandomly(ctx context.Context) error {
	if err := f.bound(); err != nil {
		return err
	}
	r := f.client.rand
	return f.edit(ctx, func(content []Program) ([]Program, error) { return SortRandomly(content, r), nil })
}

func (f *FillerList) RemoveDuplicates(ctx context.Context) error {
	return f.edit(ctx, func(content []Program) ([]Program, error) { return RemoveDuplicates(content), nil })
}

// Delete detaches the list from every channel using it, then removes it.
func (f *FillerList) Delete(ctx context.Context) error {
	channels, err := f.Channels(ctx)
	if err != nil {
		return err
	}
	for _, ch := range channels {
		if err := ch.DeleteFillerList(ctx, f.ID); err != nil {
			return fmt.Errorf("detach filler list from channel %d: %w", ch.Number, err)
		}
	}
	return f.client.DeleteFillerList(ctx, f.ID)
}
