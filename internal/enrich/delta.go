package enrich

import (
	"strings"

	"github.com/sells-group/trial-research/internal/model"
	"github.com/sells-group/trial-research/internal/provider"
)

// delta is the contribution of one enrichment step. Each delta receives a
// copy of the record and returns the updated copy; the record is never
// shared between steps.
type delta func(model.EnrichedRecord) model.EnrichedRecord

func fold(rec model.EnrichedRecord, deltas ...delta) model.EnrichedRecord {
	for _, d := range deltas {
		if d != nil {
			rec = d(rec)
		}
	}
	return rec
}

func withStatus(status string) delta {
	return func(r model.EnrichedRecord) model.EnrichedRecord {
		r.ResearchStatus = status
		return r
	}
}

// listingDelta copies the first candidate into the record and records how
// many candidates came back. ids are the pre-resolved place ids used for the
// lookup, if any; they count as known locations on their own.
func listingDelta(candidates []provider.ListingCandidate, ids []string, multiMin int) delta {
	return func(r model.EnrichedRecord) model.EnrichedRecord {
		locations := len(candidates)
		placeIDs := ids
		if len(ids) > 0 {
			locations = max(locations, len(ids))
		} else {
			for _, c := range candidates {
				placeIDs = appendUnique(placeIDs, c.PlaceID)
			}
		}
		r.LocationsFound = locations
		r.PlaceIDs = strings.Join(placeIDs, "; ")
		r.AppearsMultiLocation = multiMin > 0 && locations >= multiMin

		if len(candidates) == 0 {
			return r
		}

		primary := candidates[0]
		r.Website = strings.TrimSpace(primary.Website)
		r.ListingTitle = primary.Title
		r.ListingURL = primary.URL
		r.Phone = primary.Phone
		r.Address = primary.Address
		r.Category = primary.Category
		r.PriceLevel = primary.PriceLevel
		if primary.Rating != nil {
			rating := *primary.Rating
			r.Rating = &rating
		}
		r.ReviewCount = max(primary.ReviewCount, 0)

		titles := make([]string, 0, len(candidates))
		for _, c := range candidates {
			if c.Title != "" {
				titles = append(titles, c.Title)
			}
		}
		r.AllLocations = strings.Join(titles, " | ")
		return r
	}
}

// maxJobTitles bounds the sample of titles kept on the record.
const maxJobTitles = 5

func jobsDelta(postings []provider.JobPosting) delta {
	return func(r model.EnrichedRecord) model.EnrichedRecord {
		r.JobPostingsFound = len(postings)
		var titles []string
		for _, p := range postings {
			if len(titles) == maxJobTitles {
				break
			}
			titles = appendUnique(titles, strings.TrimSpace(p.Title))
		}
		r.JobTitles = strings.Join(titles, "; ")
		return r
	}
}

func pageDelta(page *provider.PageSignals, parent string) delta {
	return func(r model.EnrichedRecord) model.EnrichedRecord {
		if page == nil {
			return r
		}
		r.LocationsURL = page.LocationsURL
		r.CareersURL = page.CareersURL
		r.ParentCompany = parent
		return r
	}
}

// scoreDelta derives every computed column from the fields already set.
func scoreDelta(retier bool) delta {
	return func(r model.EnrichedRecord) model.EnrichedRecord {
		found := r.HasListing()
		r.AppearsFullService = found && IsFullService(r.Category, r.PriceLevel)
		r.EstimatedSize = ""
		if found {
			r.EstimatedSize = EstimateSize(r.ReviewCount)
		}
		r.ConfidenceScore = ConfidenceScore(r)
		r.ConfidenceTier = model.ConfidenceTierFor(r.ConfidenceScore)
		r.NewTier = ""
		if retier {
			r.NewTier = Retier(r.AppearsMultiLocation, r.AppearsFullService, r.ReviewCount)
		}
		return r
	}
}

func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
