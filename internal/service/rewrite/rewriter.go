package rewrite

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ann82/dv-assistant-sub003/internal/analysis/location"
	"github.com/ann82/dv-assistant-sub003/internal/model/conversation"
)

const (
	// ShelterKeyword leads every domestic shelter query.
	ShelterKeyword = "domestic violence shelter"
	// SearchOperators narrow shelter searches to organisational pages.
	SearchOperators = "site:org OR site:gov -filetype:pdf"

	defaultQuery = "domestic violence support resources"
)

// SessionReader is the slice of the context store the rewriter needs.
type SessionReader interface {
	Get(ctx context.Context, key string) (*conversation.Session, bool)
}

// intentTerms are appended once, and only when missing.
var intentTerms = map[conversation.Intent]string{
	conversation.IntentShelter:            "domestic violence shelter",
	conversation.IntentLegal:              "legal aid domestic violence",
	conversation.IntentCounseling:         "domestic violence counseling",
	conversation.IntentEmergency:          "domestic violence emergency help",
	conversation.IntentGeneralInformation: "information resources guide",
	conversation.IntentOtherResources:     "domestic violence support services",
}

// Rewriter turns an utterance into a search query.
type Rewriter struct {
	geocoder location.Geocoder
	sessions SessionReader
}

// New builds a rewriter; sessions may be nil.
func New(geocoder location.Geocoder, sessions SessionReader) *Rewriter {
	if geocoder == nil {
		geocoder = location.NewGazetteerGeocoder()
	}
	return &Rewriter{geocoder: geocoder, sessions: sessions}
}

// Rewrite never returns an empty string. Any internal failure, a panic
// included, yields the original utterance.
func (r *Rewriter) Rewrite(ctx context.Context, utterance string, intent conversation.Intent, sessionKey string) (query string) {
	original := strings.TrimSpace(utterance)
	if original == "" {
		return defaultQuery
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("[rewrite] recovered from panic, using original utterance: %v", rec)
			query = original
		}
		if strings.TrimSpace(query) == "" {
			query = original
		}
	}()

	place := r.locate(ctx, original, sessionKey)
	return Build(original, intent, place)
}

// Locate resolves the utterance's location, falling back to the one
// remembered in the session's focus context.
func (r *Rewriter) Locate(ctx context.Context, utterance, sessionKey string) *location.Place {
	return r.locate(ctx, utterance, sessionKey)
}

func (r *Rewriter) locate(ctx context.Context, utterance, sessionKey string) *location.Place {
	place, err := r.geocoder.Geocode(ctx, utterance)
	if err != nil {
		log.Warnf("[rewrite] geocode failed: %v", err)
	}
	if place != nil && place.Name != "" {
		return place
	}

	if r.sessions == nil || sessionKey == "" {
		return nil
	}
	sess, ok := r.sessions.Get(ctx, sessionKey)
	if !ok || sess.LastQueryContext == nil || sess.LastQueryContext.Location == "" {
		return nil
	}
	remembered, err := r.geocoder.Geocode(ctx, "in "+sess.LastQueryContext.Location)
	if err != nil || remembered == nil {
		return &location.Place{Name: sess.LastQueryContext.Location, Country: "US", Domestic: true}
	}
	return remembered
}

// Build assembles the query for a known place; place may be nil.
func Build(utterance string, intent conversation.Intent, place *location.Place) string {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return defaultQuery
	}

	if place != nil && place.Domestic && intent == conversation.IntentShelter {
		return ShelterKeyword + " near " + place.Name + " " + SearchOperators
	}

	query := utterance
	if terms, ok := intentTerms[intent]; ok && !containsFold(query, terms) {
		query += " " + terms
	}
	if place != nil && place.Name != "" && !containsFold(query, place.Name) {
		query += " in " + place.Name
	}
	return query
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
