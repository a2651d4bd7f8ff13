package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(target string) Params {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		target string
		want   Params
	}{
		{"/", Params{Limit: DefaultLimit, Offset: 0}},
		{"/?limit=5&offset=10", Params{Limit: 5, Offset: 10}},
		{"/?limit=1000", Params{Limit: MaxLimit, Offset: 0}},
		{"/?limit=-3&offset=-7", Params{Limit: DefaultLimit, Offset: 0}},
		{"/?limit=abc", Params{Limit: DefaultLimit, Offset: 0}},
	}
	for _, tt := range tests {
		if got := paramsFor(tt.target); got != tt.want {
			t.Errorf("FromContext(%s) = %+v, want %+v", tt.target, got, tt.want)
		}
	}
}

func TestNewResponse(t *testing.T) {
	data := []string{"a", "b", "c"}
	if r := NewResponse(data, 10, 3, 0); r.Total != 10 || !r.HasMore {
		t.Errorf("expected more results, got %+v", r)
	}
	if r := NewResponse(data, 3, 3, 0); r.HasMore {
		t.Error("expected has_more to be false when offset+limit >= total")
	}
}

func TestParams_HasNext(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		total  int
		want   bool
	}{
		{"more results", Params{Limit: 10, Offset: 0}, 25, true},
		{"exact end", Params{Limit: 10, Offset: 15}, 25, false},
		{"past end", Params{Limit: 10, Offset: 30}, 25, false},
		{"no results", Params{Limit: 10, Offset: 0}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.HasNext(tt.total); got != tt.want {
				t.Errorf("HasNext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParams_PreviousOffset(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   int
	}{
		{"normal", Params{Limit: 10, Offset: 20}, 10},
		{"clamp to zero", Params{Limit: 10, Offset: 5}, 0},
		{"exact", Params{Limit: 10, Offset: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.PreviousOffset(); got != tt.want {
				t.Errorf("PreviousOffset() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParams_Links(t *testing.T) {
	first := Params{Limit: 10, Offset: 0}.Links("/api/v1/proteins", 25)
	if first.Self != "/api/v1/proteins?offset=0&limit=10" {
		t.Errorf("unexpected self %q", first.Self)
	}
	if first.Next != "/api/v1/proteins?offset=10&limit=10" {
		t.Errorf("unexpected next %q", first.Next)
	}
	if first.Previous != "" {
		t.Errorf("did not expect previous link on first page, got %q", first.Previous)
	}

	last := Params{Limit: 10, Offset: 20}.Links("/api/v1/proteins", 25)
	if last.Next != "" {
		t.Errorf("did not expect next link on last page, got %q", last.Next)
	}
	if last.Previous != "/api/v1/proteins?offset=10&limit=10" {
		t.Errorf("unexpected previous %q", last.Previous)
	}
}

func TestResponse_WithLinks(t *testing.T) {
	r := NewResponse(nil, 25, 10, 10).WithLinks("/api/v1/proteins")
	if r.Links == nil || r.Links.Next == "" || r.Links.Previous == "" {
		t.Errorf("expected both neighbour links, got %+v", r.Links)
	}
}
