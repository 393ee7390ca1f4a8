package api

import (
	"net/http"

	"github.com/okian/ranking/internal/domain/links"
	"github.com/okian/ranking/internal/domain/model"
)

// embeddedRel names the collection inside _embedded.
const embeddedRel = "rankingList"

type halLink struct {
	Href string `json:"href"`
}

type recordResource struct {
	model.ScoreRecord
	Links map[string]any `json:"_links"`
}

type historyResource struct {
	model.PlayerHistory
	Links map[string]any `json:"_links"`
}

type embedded struct {
	RankingList []recordResource `json:"rankingList"`
}

type pageMetadata struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

type collectionResource struct {
	Embedded embedded       `json:"_embedded"`
	Links    map[string]any `json:"_links"`
	Page     *pageMetadata  `json:"page,omitempty"`
}

// baseURL returns scheme://host of the request, honouring X-Forwarded-Proto.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host
}

// renderLinks groups links by rel. A rel used more than once renders as an array.
func renderLinks(base string, ls []links.Link) map[string]any {
	grouped := make(map[string][]halLink, len(ls))
	for _, l := range ls {
		grouped[l.Rel] = append(grouped[l.Rel], halLink{Href: base + l.Href()})
	}
	out := make(map[string]any, len(grouped))
	for rel, hrefs := range grouped {
		if len(hrefs) == 1 {
			out[rel] = hrefs[0]
			continue
		}
		out[rel] = hrefs
	}
	return out
}

func listItems(base string, records []model.ScoreRecord) []recordResource {
	out := make([]recordResource, len(records))
	for i, r := range records {
		out[i] = recordResource{ScoreRecord: r, Links: renderLinks(base, links.ListItem(r))}
	}
	return out
}

func newRecordResource(base string, r model.ScoreRecord) recordResource {
	return recordResource{ScoreRecord: r, Links: renderLinks(base, links.Record(r))}
}

func newHistoryResource(base string, h model.PlayerHistory) historyResource {
	return historyResource{PlayerHistory: h, Links: renderLinks(base, links.PlayerHistory(h))}
}

func newCollectionResource(base string, records []model.ScoreRecord) collectionResource {
	return collectionResource{
		Embedded: embedded{RankingList: listItems(base, records)},
		Links:    renderLinks(base, links.Collection()),
	}
}

func newPageResource(base string, search links.Search, page model.Page) collectionResource {
	return collectionResource{
		Embedded: embedded{RankingList: listItems(base, page.Items)},
		Links:    renderLinks(base, links.Pagination(search, page)),
		Page: &pageMetadata{
			Size:          page.Size,
			TotalElements: page.TotalItems,
			TotalPages:    page.TotalPages,
			Number:        page.Index,
		},
	}
}
