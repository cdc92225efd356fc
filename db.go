package glance

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// DB persists converted frames and device telemetry. Framebuffers are
// stored zstd-compressed; dithered e-ink buffers compress well.
type DB struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewDB(file string) (*DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS frame (id INTEGER PRIMARY KEY NOT NULL, title TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, sleep_seconds INTEGER NOT NULL, data BLOB NOT NULL, created_at TIMESTAMP NOT NULL)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS status (id INTEGER PRIMARY KEY NOT NULL, device_id TEXT NOT NULL, battery_voltage REAL NOT NULL, signal_strength INTEGER NOT NULL, temperature REAL NOT NULL, uptime INTEGER NOT NULL, firmware TEXT NOT NULL, update_success INTEGER NOT NULL, last_error TEXT NOT NULL, reported_at TIMESTAMP NOT NULL)"); err != nil {
		return nil, err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}

	return &DB{
		db:  db,
		enc: enc,
		dec: dec,
	}, nil
}

func (d *DB) Close() error {
	d.dec.Close()
	if err := d.enc.Close(); err != nil {
		return err
	}
	return d.db.Close()
}

// Frame is a stored, packed framebuffer together with the metadata the
// device needs to display it.
type Frame struct {
	ID           int64
	Title        string
	Width        int
	Height       int
	SleepSeconds int
	Data         []byte
	CreatedAt    time.Time
}

// SaveFrame stores a packed framebuffer and returns its id. The newest
// frame becomes the current one.
func (d *DB) SaveFrame(f *Frame) (int64, error) {
	result, err := d.db.Exec("INSERT INTO frame (title, width, height, sleep_seconds, data, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		f.Title, f.Width, f.Height, f.SleepSeconds, d.enc.EncodeAll(f.Data, nil), time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CurrentFrame returns the most recently stored frame, or nil if none
// has been stored yet.
func (d *DB) CurrentFrame() (*Frame, error) {
	f := &Frame{}
	var blob []byte
	switch err := d.db.QueryRow("SELECT id, title, width, height, sleep_seconds, data, created_at FROM frame ORDER BY id DESC LIMIT 1").Scan(&f.ID, &f.Title, &f.Width, &f.Height, &f.SleepSeconds, &blob, &f.CreatedAt); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		data, err := d.dec.DecodeAll(blob, nil)
		if err != nil {
			return nil, err
		}
		f.Data = data
		return f, nil
	default:
		return nil, err
	}
}

// DeviceStatus is one telemetry report from a display client.
type DeviceStatus struct {
	DeviceID          string
	BatteryVoltage    float64
	SignalStrength    int
	Temperature       float64
	Uptime            int64
	Firmware          string
	LastUpdateSuccess bool
	LastError         string
	ReportedAt        time.Time
}

// SaveStatus appends a telemetry report to the device's history.
func (d *DB) SaveStatus(s *DeviceStatus) error {
	reported := s.ReportedAt
	if reported.IsZero() {
		reported = time.Now().UTC()
	}
	_, err := d.db.Exec("INSERT INTO status (device_id, battery_voltage, signal_strength, temperature, uptime, firmware, update_success, last_error, reported_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.DeviceID, s.BatteryVoltage, s.SignalStrength, s.Temperature, s.Uptime, s.Firmware, s.LastUpdateSuccess, s.LastError, reported)
	return err
}

// LatestStatus returns the newest telemetry report for a device, or
// nil if the device has never reported.
func (d *DB) LatestStatus(deviceID string) (*DeviceStatus, error) {
	s := &DeviceStatus{}
	switch err := d.db.QueryRow("SELECT device_id, battery_voltage, signal_strength, temperature, uptime, firmware, update_success, last_error, reported_at FROM status WHERE device_id = ? ORDER BY id DESC LIMIT 1", deviceID).Scan(&s.DeviceID, &s.BatteryVoltage, &s.SignalStrength, &s.Temperature, &s.Uptime, &s.Firmware, &s.LastUpdateSuccess, &s.LastError, &s.ReportedAt); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return s, nil
	default:
		return nil, err
	}
}
