// Package matching pairs editorial drafts with the publications they turned
// into. Candidates are restricted to the same audience and author within a
// trailing publish window; the best candidate per publication is picked by
// embedding similarity and labelled with a confidence level.
package matching

import (
	"math"
	"strings"
	"time"

	"github.com/allermedia/allerai-event-scorer/internal/models"
)

// ConfigIDToSite maps the per-site configuration id carried by drafts onto
// the site domain used by publications. The "default-english-configuration"
// entry maps to itself so its drafts never join a real audience.
var ConfigIDToSite = map[string]string{
	"default-english-configuration":         "default-english-configuration",
	"femina-se-citation-story-config":       "femina.se",
	"hant-se-citation-story-config":         "hant.se",
	"kk-no-citation-story-config":           "kk.no",
	"svensk-dam-se-citation-story-config":   "svenskdam.se",
	"se-og-hor-no-citation-story-config":    "seoghoer.no",
	"billedbladet-dk-citation-story-config": "billedbladet.dk",
	"dagbladet-sitatsak-dev":                "dagbladet.no",
	"dagbladet-sitatsak":                    "dagbladet.no",
	"seiska-citation-article":               "seiska.fi",
	"sol.no-coeditor-citatsak":              "sol.no",
	"se-og-hor-dk-citation-story-config":    "seoghoer.dk",
	"femina-dk-citation-story-config":       "femina.dk",
}

const (
	// PublishWindow is how long after draft creation a publication still
	// counts as a candidate.
	PublishWindow = 14 * 24 * time.Hour

	decayMidpointDays = 7.0
	decaySteepness    = 0.4
)

// ReformatName canonicalizes a CMS byline to "first last" lowercase: photo
// credits and the "Af " prefix are stripped, "Last, First" is flipped, and
// middle names are dropped.
func ReformatName(name string) string {
	name = strings.TrimSpace(name)

	if i := strings.Index(strings.ToLower(name), " foto:"); i != -1 {
		name = strings.TrimSpace(name[:i])
	}

	if len(name) >= 3 && strings.EqualFold(name[:3], "af ") {
		name = strings.TrimSpace(name[3:])
	}

	if strings.Contains(name, ",") {
		parts := strings.Split(name, ",")
		if len(parts) == 2 {
			name = strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0])
		}
	}

	tokens := strings.Fields(name)
	if len(tokens) >= 2 {
		name = tokens[0] + " " + tokens[len(tokens)-1]
	}

	return strings.ToLower(name)
}

// publicationAuthor resolves the canonical author of a publication. The CMS
// creator wins; the byline is the fallback, cut at its first comma.
func publicationAuthor(pub models.Publication) string {
	if pub.CreatedBy != nil && *pub.CreatedBy != "" {
		return ReformatName(*pub.CreatedBy)
	}

	if pub.Author != nil && *pub.Author != "" {
		head, _, _ := strings.Cut(*pub.Author, ",")

		return strings.ToLower(strings.TrimSpace(head))
	}

	return ""
}

// draftAuthor builds the canonical "first last" form from a platform user.
func draftAuthor(user models.User) string {
	return strings.ToLower(strings.TrimSpace(user.FirstName + " " + user.LastName))
}

// SmoothDecay maps the draft-to-publish gap in days onto (0, 1): near 1 for
// fresh publications, 0.5 at the midpoint, approaching 0 beyond it.
func SmoothDecay(daysDiff float64) float64 {
	return 1 / (1 + math.Exp(decaySteepness*(daysDiff-decayMidpointDays)))
}

// GenerateCandidates joins drafts with publications on audience and author
// identity, keeping pairs where the publication appeared within PublishWindow
// after the draft. Drafts whose configuration id maps to no audience, or
// whose author is unknown, produce no pairs.
func GenerateCandidates(drafts []models.Draft, users []models.User, pubs []models.Publication) []models.CandidatePair {
	usersByID := make(map[string]models.User, len(users))
	for _, u := range users {
		usersByID[u.ID.String()] = u
	}

	type pubKey struct {
		site   string
		author string
	}

	pubsByKey := make(map[pubKey][]models.Publication, len(pubs))

	for _, p := range pubs {
		author := publicationAuthor(p)
		if author == "" {
			continue
		}

		k := pubKey{site: p.SiteDomain, author: author}
		pubsByKey[k] = append(pubsByKey[k], p)
	}

	var pairs []models.CandidatePair

	for _, d := range drafts {
		site, ok := ConfigIDToSite[d.ConfigurationID]
		if !ok {
			continue
		}

		user, ok := usersByID[d.UserID.String()]
		if !ok {
			continue
		}

		author := draftAuthor(user)
		if author == "" {
			continue
		}

		for _, p := range pubsByKey[pubKey{site: site, author: author}] {
			if p.PublishedAt.Before(d.CreatedAt) || p.PublishedAt.After(d.CreatedAt.Add(PublishWindow)) {
				continue
			}

			daysDiff := int(p.PublishedAt.Sub(d.CreatedAt).Hours() / 24)

			pairs = append(pairs, models.CandidatePair{
				Draft:             d,
				Publication:       p,
				DraftAuthor:       author,
				PublicationAuthor: publicationAuthor(p),
				DaysDiff:          daysDiff,
				TimeDecay:         SmoothDecay(float64(daysDiff)),
			})
		}
	}

	return pairs
}
