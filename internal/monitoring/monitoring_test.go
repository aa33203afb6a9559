package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrument_UsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Instrument())
	r.GET("/posts/:id", func(c *gin.Context) {
		c.Status(http.StatusTeapot)
	})

	before := testutil.CollectAndCount(RequestDuration)

	for _, path := range []string{"/posts/1", "/posts/2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusTeapot, w.Code)
	}

	// both requests share the /posts/:id series
	assert.Equal(t, before+1, testutil.CollectAndCount(RequestDuration))
}

func TestInstrument_Unmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Instrument())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope/123", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	obs, err := RequestDuration.GetMetricWithLabelValues(http.MethodGet, "unmatched", "404")
	assert.NoError(t, err)
	assert.NotNil(t, obs)
}

func TestVotesCast_Labels(t *testing.T) {
	before := testutil.ToFloat64(VotesCast.WithLabelValues("created"))
	VotesCast.WithLabelValues("created").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(VotesCast.WithLabelValues("created")))
}
