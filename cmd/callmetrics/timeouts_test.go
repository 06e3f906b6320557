package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHTTPTimeoutsValidate(t *testing.T) {
	t.Run("valid timeouts", func(t *testing.T) {
		timeouts := httpTimeouts{
			Total:          10 * time.Second,
			ResponseHeader: 5 * time.Second,
			IdleConn:       30 * time.Second,
			TLSHandshake:   10 * time.Second,
			Dial:           5 * time.Second,
		}
		assert.NoError(t, timeouts.Validate())
	})

	t.Run("zero timeouts are valid", func(t *testing.T) {
		assert.NoError(t, httpTimeouts{}.Validate())
	})

	t.Run("negative dial timeout is invalid", func(t *testing.T) {
		err := httpTimeouts{Dial: -1 * time.Second}.Validate()
		assert.ErrorContains(t, err, "dial cannot be negative")
	})

	t.Run("negative total timeout is invalid", func(t *testing.T) {
		err := httpTimeouts{Total: -1}.Validate()
		assert.ErrorContains(t, err, "total cannot be negative")
	})
}

func TestHTTPTimeoutsBaseTransport(t *testing.T) {
	tr := httpTimeouts{
		ResponseHeader: 2 * time.Second,
		IdleConn:       time.Minute,
		TLSHandshake:   3 * time.Second,
	}.baseTransport()

	assert.Equal(t, 2*time.Second, tr.ResponseHeaderTimeout)
	assert.Equal(t, time.Minute, tr.IdleConnTimeout)
	assert.Equal(t, 3*time.Second, tr.TLSHandshakeTimeout)
	assert.NotNil(t, tr.DialContext)

	defaults := httpTimeouts{}.baseTransport()
	assert.Zero(t, defaults.ResponseHeaderTimeout)
}
