package glance

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "glance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCurrentFrameEmpty(t *testing.T) {
	db := testDB(t)

	frame, err := db.CurrentFrame()
	require.NoError(t, err)
	assert.Nil(t, frame)
}

func TestSaveAndCurrentFrame(t *testing.T) {
	db := testDB(t)

	data := bytes.Repeat([]byte{0x10, 0x26}, 100)
	id, err := db.SaveFrame(&Frame{
		Title:        "sunset",
		Width:        20,
		Height:       20,
		SleepSeconds: 3600,
		Data:         data,
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	frame, err := db.CurrentFrame()
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, "sunset", frame.Title)
	assert.Equal(t, 20, frame.Width)
	assert.Equal(t, 20, frame.Height)
	assert.Equal(t, 3600, frame.SleepSeconds)
	assert.Equal(t, data, frame.Data)
	assert.False(t, frame.CreatedAt.IsZero())
}

func TestCurrentFrameIsNewest(t *testing.T) {
	db := testDB(t)

	_, err := db.SaveFrame(&Frame{Title: "first", Width: 2, Height: 2, Data: []byte{0x11}})
	require.NoError(t, err)
	_, err = db.SaveFrame(&Frame{Title: "second", Width: 2, Height: 2, Data: []byte{0x10}})
	require.NoError(t, err)

	frame, err := db.CurrentFrame()
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, "second", frame.Title)
}

func TestStatusRoundTrip(t *testing.T) {
	db := testDB(t)

	status, err := db.LatestStatus("esp32-001")
	require.NoError(t, err)
	assert.Nil(t, status)

	require.NoError(t, db.SaveStatus(&DeviceStatus{
		DeviceID:       "esp32-001",
		BatteryVoltage: 3.3,
		SignalStrength: -67,
		Temperature:    24.5,
		Uptime:         120000,
		Firmware:       "1.0.0",
		LastError:      "",
	}))
	require.NoError(t, db.SaveStatus(&DeviceStatus{
		DeviceID:          "esp32-001",
		BatteryVoltage:    3.9,
		SignalStrength:    -60,
		Temperature:       25.0,
		Uptime:            240000,
		Firmware:          "1.0.1",
		LastUpdateSuccess: true,
	}))

	status, err = db.LatestStatus("esp32-001")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, 3.9, status.BatteryVoltage)
	assert.Equal(t, "1.0.1", status.Firmware)
	assert.True(t, status.LastUpdateSuccess)
	assert.False(t, status.ReportedAt.IsZero())

	status, err = db.LatestStatus("esp32-002")
	require.NoError(t, err)
	assert.Nil(t, status)
}
