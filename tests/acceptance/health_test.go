package acceptance

import "net/http"

func (s *Suite) TestHealth() {
	resp := s.getJSON("/health", "")
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *Suite) TestMetrics() {
	resp := s.getJSON("/metrics", "")
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}
