// Package pagination pages report queries through the Data API limit and
// offset fields using opaque cursor tokens.
package pagination

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/your-username/ga-report-adapter/backend/internal/models"
)

// Paginator handles report pagination
type Paginator struct {
	DefaultPageSize int64
	MaxPageSize     int64
}

// PageRequest represents pagination parameters
type PageRequest struct {
	PageSize  int64  `json:"page_size"`
	PageToken string `json:"page_token,omitempty"`
}

// CursorToken is the decoded form of a page token. Query fingerprints the
// report the token was issued for.
type CursorToken struct {
	Offset int64  `json:"offset"`
	Query  string `json:"query"`
}

// NewPaginator creates a new paginator
func NewPaginator(defaultSize, maxSize int64) *Paginator {
	return &Paginator{
		DefaultPageSize: defaultSize,
		MaxPageSize:     maxSize,
	}
}

// ValidateRequest validates and normalizes a pagination request
func (p *Paginator) ValidateRequest(req *PageRequest) error {
	if req.PageSize < 0 {
		return fmt.Errorf("invalid page size: %d", req.PageSize)
	}
	if req.PageSize == 0 {
		req.PageSize = p.DefaultPageSize
	}
	if req.PageSize > p.MaxPageSize {
		req.PageSize = p.MaxPageSize
	}

	if req.PageToken != "" {
		if _, err := p.DecodeToken(req.PageToken); err != nil {
			return fmt.Errorf("invalid page token: %w", err)
		}
	}
	return nil
}

// Apply sets the limit and offset of q for the requested page. A token issued
// for a different query is rejected.
func (p *Paginator) Apply(q *models.ReportQuery, req PageRequest) error {
	var offset int64
	if req.PageToken != "" {
		token, err := p.DecodeToken(req.PageToken)
		if err != nil {
			return fmt.Errorf("invalid page token: %w", err)
		}
		if token.Query != Fingerprint(*q) {
			return fmt.Errorf("page token was issued for a different query")
		}
		offset = token.Offset
	}

	q.Limit = req.PageSize
	q.Offset = offset
	return nil
}

// PageInfo describes the page of q that returned rows data rows out of
// total matching rows. q must already have been passed to Apply.
func (p *Paginator) PageInfo(q models.ReportQuery, rows int, total int64) *models.PageInfo {
	fp := Fingerprint(q)
	info := &models.PageInfo{
		PageSize:   q.Limit,
		TotalCount: total,
		HasMore:    rows > 0 && q.Offset+int64(rows) < total,
	}

	if info.HasMore {
		info.NextPageToken = p.EncodeToken(&CursorToken{Offset: q.Offset + int64(rows), Query: fp})
	}

	if q.Offset > 0 {
		prev := q.Offset - q.Limit
		if prev < 0 {
			prev = 0
		}
		info.PrevPageToken = p.EncodeToken(&CursorToken{Offset: prev, Query: fp})
	}

	return info
}

// EncodeToken encodes cursor token to string
func (p *Paginator) EncodeToken(token *CursorToken) string {
	data, _ := json.Marshal(token)
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeToken decodes cursor token from string
func (p *Paginator) DecodeToken(tokenStr string) (*CursorToken, error) {
	data, err := base64.URLEncoding.DecodeString(tokenStr)
	if err != nil {
		return nil, err
	}

	var token CursorToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	if token.Offset < 0 {
		return nil, fmt.Errorf("negative offset %d", token.Offset)
	}
	return &token, nil
}

// Fingerprint identifies a query independent of its limit and offset
func Fingerprint(q models.ReportQuery) string {
	q.Limit = 0
	q.Offset = 0
	data, _ := json.Marshal(q)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
