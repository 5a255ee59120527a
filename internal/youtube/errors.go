package youtube

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuthentication   = errors.New("youtube: authentication failed")
	ErrTransport        = errors.New("youtube: request failed")
	ErrChannelNotFound  = errors.New("youtube: channel not found")
	ErrPlaylistNotFound = errors.New("youtube: playlist not found")
)

// APIError is a non-200 answer from the Data API.
type APIError struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.summary()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *APIError) summary() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "YouTube API authentication failed - please run 'ytfeed auth' to re-authenticate"
	case http.StatusForbidden:
		if isQuotaReason(e.Reason) {
			return "YouTube API quota exceeded - please try again later"
		}
		return "YouTube API access denied - check your OAuth permissions"
	case http.StatusNotFound:
		return "YouTube API resource not found"
	case http.StatusTooManyRequests:
		return "YouTube API rate limit exceeded - please try again later"
	case http.StatusServiceUnavailable:
		return "YouTube API temporarily unavailable - please try again in a few minutes"
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusGatewayTimeout:
		return "YouTube API server error - please try again later"
	default:
		return fmt.Sprintf("YouTube API error (status %d) - please try again", e.StatusCode)
	}
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrAuthentication
	case e.StatusCode == http.StatusNotFound && e.Reason == "playlistNotFound":
		return ErrPlaylistNotFound
	case e.StatusCode == http.StatusNotFound && e.Reason == "channelNotFound":
		return ErrChannelNotFound
	default:
		return ErrTransport
	}
}

func isQuotaReason(reason string) bool {
	switch reason {
	case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded":
		return true
	}
	return false
}

// errorBody is Google's standard error envelope.
type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	var parsed errorBody
	if json.Unmarshal(body, &parsed) == nil {
		apiErr.Message = parsed.Error.Message
		if len(parsed.Error.Errors) > 0 {
			apiErr.Reason = parsed.Error.Errors[0].Reason
		}
	}
	return apiErr
}
