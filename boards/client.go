package boards

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-board-client/gateway"
	"github.com/jrsteele09/go-board-client/internal/errors"
)

const (
	RouteBoards     = "/boards"
	RouteCategories = "/boards/categories"
)

// Doer is the part of the gateway the board client needs.
type Doer interface {
	DoJSON(ctx context.Context, req *gateway.Request, out any) error
}

// Client is the typed board API. Every call goes through the gateway.
type Client struct {
	gw Doer
}

func NewClient(gw Doer) *Client {
	return &Client{gw: gw}
}

func (c *Client) List(ctx context.Context, page, size int) (*Page[ListItem], error) {
	req := &gateway.Request{
		Method: http.MethodGet,
		Path:   RouteBoards,
		Query:  url.Values{"page": {strconv.Itoa(page)}, "size": {strconv.Itoa(size)}},
	}
	var out Page[ListItem]
	if err := c.gw.DoJSON(ctx, req, &out); err != nil {
		return nil, errors.Wrapf(err, "[boards List] page %d", page)
	}
	return &out, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*Detail, error) {
	var out Detail
	if err := c.gw.DoJSON(ctx, &gateway.Request{Method: http.MethodGet, Path: boardPath(id)}, &out); err != nil {
		return nil, errors.Wrapf(err, "[boards Get] %d", id)
	}
	return &out, nil
}

// Create posts a new board and returns its id.
func (c *Client) Create(ctx context.Context, r Request, file *Attachment) (int64, error) {
	req, err := multipartRequest(http.MethodPost, RouteBoards, r, file)
	if err != nil {
		return 0, err
	}
	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.gw.DoJSON(ctx, req, &out); err != nil {
		return 0, errors.Wrapf(err, "[boards Create]")
	}
	return out.ID, nil
}

// Update replaces the fields of board id. A nil file keeps the current image.
func (c *Client) Update(ctx context.Context, id int64, r Request, file *Attachment) error {
	req, err := multipartRequest(http.MethodPatch, boardPath(id), r, file)
	if err != nil {
		return err
	}
	if err := c.gw.DoJSON(ctx, req, nil); err != nil {
		return errors.Wrapf(err, "[boards Update] %d", id)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	if err := c.gw.DoJSON(ctx, &gateway.Request{Method: http.MethodDelete, Path: boardPath(id)}, nil); err != nil {
		return errors.Wrapf(err, "[boards Delete] %d", id)
	}
	return nil
}

func (c *Client) Categories(ctx context.Context) (Categories, error) {
	out := Categories{}
	if err := c.gw.DoJSON(ctx, &gateway.Request{Method: http.MethodGet, Path: RouteCategories}, &out); err != nil {
		return nil, errors.Wrapf(err, "[boards Categories]")
	}
	return out, nil
}

func boardPath(id int64) string {
	return fmt.Sprintf("%s/%d", RouteBoards, id)
}

// multipartRequest builds the form with a JSON "request" part and an optional
// "file" part. The whole body is buffered so the gateway can replay it.
func multipartRequest(method, path string, r Request, file *Attachment) (*gateway.Request, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="request"`)
	header.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, errors.Wrapf(err, "[boards] creating request part")
	}
	if err := json.NewEncoder(part).Encode(r); err != nil {
		return nil, errors.Wrapf(err, "[boards] encoding request part")
	}

	if file != nil && file.Reader != nil {
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fh := make(textproto.MIMEHeader)
		fh.Set("Content-Disposition", multipartFileDisposition(file.Name))
		fh.Set("Content-Type", contentType)
		fp, err := mw.CreatePart(fh)
		if err != nil {
			return nil, errors.Wrapf(err, "[boards] creating file part")
		}
		if _, err := io.Copy(fp, file.Reader); err != nil {
			return nil, errors.Wrapf(err, "[boards] reading attachment %s", file.Name)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, errors.Wrapf(err, "[boards] closing multipart body")
	}
	return &gateway.Request{
		Method:      method,
		Path:        path,
		Body:        buf.Bytes(),
		ContentType: mw.FormDataContentType(),
	}, nil
}

func multipartFileDisposition(name string) string {
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf(`form-data; name="file"; filename=%q`, name)
}
