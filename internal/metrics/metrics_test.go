package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/events", "200"))
	RecordAPIRequest("GET", "/events", "200", 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/events", "200"))
	if after-before != 1 {
		t.Errorf("requests counter delta = %v, want 1", after-before)
	}
}

func TestRecordRecommendation(t *testing.T) {
	before := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("invalid"))
	RecordRecommendation("invalid", 0)
	if got := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("invalid")) - before; got != 1 {
		t.Errorf("invalid delta = %v, want 1", got)
	}
}

func TestRecordGeocodeAndCatalog(t *testing.T) {
	g := testutil.ToFloat64(GeocodeLookupsTotal.WithLabelValues("fallback"))
	RecordGeocode("fallback")
	if testutil.ToFloat64(GeocodeLookupsTotal.WithLabelValues("fallback"))-g != 1 {
		t.Error("geocode fallback counter not incremented")
	}

	c := testutil.ToFloat64(CatalogCreatesTotal.WithLabelValues("event"))
	RecordCatalogCreate("event")
	if testutil.ToFloat64(CatalogCreatesTotal.WithLabelValues("event"))-c != 1 {
		t.Error("catalog event counter not incremented")
	}
}
