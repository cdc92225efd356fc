package glance

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/chaerem/glance/eink"
	"github.com/chaerem/glance/palette"
)

// displayRequest is the POST /api/display payload.
type displayRequest struct {
	// Image is the base64-encoded photo (JPEG, PNG, GIF, BMP, TIFF or
	// WebP).
	Image string `json:"image"`
	Title string `json:"title"`

	Rotation int `json:"rotation"`
	Width    int `json:"width"`
	Height   int `json:"height"`

	// CropX and CropY are pointers so that an explicit 0 (left/top
	// edge) stays distinguishable from an omitted field (centered).
	CropX *float64 `json:"cropX"`
	CropY *float64 `json:"cropY"`

	Zoom               float64 `json:"zoomLevel"`
	Algorithm          string  `json:"algorithm"`
	Matcher            string  `json:"matcher"`
	EnhanceContrast    bool    `json:"enhanceContrast"`
	Sharpen            bool    `json:"sharpen"`
	AutoCropWhitespace bool    `json:"autoCropWhitespace"`

	// SleepSeconds tells the device how long to deep-sleep before
	// polling again.
	SleepSeconds int `json:"sleepDuration"`
}

// currentResponse is what the device parses out of
// GET /api/current.json.
type currentResponse struct {
	// Image is the base64-encoded packed 4bpp framebuffer.
	Image         string `json:"image"`
	Title         string `json:"title"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	SleepDuration int    `json:"sleepDuration"`
}

// statusRequest is the telemetry payload the device reports after each
// refresh cycle.
type statusRequest struct {
	DeviceID          string  `json:"deviceId"`
	BatteryVoltage    float64 `json:"batteryVoltage"`
	SignalStrength    int     `json:"signalStrength"`
	Temperature       float64 `json:"temperature"`
	Uptime            int64   `json:"uptime"`
	FirmwareVersion   string  `json:"firmwareVersion"`
	LastUpdateSuccess bool    `json:"lastUpdateSuccess"`
	LastError         string  `json:"lastError"`
}

// Handler returns the HTTP API consumed by the display client and the
// uploading frontend.
func (g *Glance) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/display", g.handleDisplay)
	mux.HandleFunc("/api/current.json", g.handleCurrent)
	mux.HandleFunc("/api/display.bin", g.handleDisplayBin)
	mux.HandleFunc("/api/status", g.handleStatus)
	mux.HandleFunc("/api/devices/", g.handleDevice)
	return mux
}

func (g *Glance) handleDisplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req displayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		http.Error(w, "image is not valid base64", http.StatusBadRequest)
		return
	}

	frame, err := eink.Convert(data, eink.Options{
		Rotation:           req.Rotation,
		TargetWidth:        req.Width,
		TargetHeight:       req.Height,
		CropX:              cropOrCentered(req.CropX),
		CropY:              cropOrCentered(req.CropY),
		Zoom:               req.Zoom,
		Algorithm:          req.Algorithm,
		Matcher:            req.Matcher,
		EnhanceContrast:    req.EnhanceContrast,
		Sharpen:            req.Sharpen,
		AutoCropWhitespace: req.AutoCropWhitespace,
	})
	if err != nil {
		g.logger.Printf("Conversion failed: %v\n", err)
		http.Error(w, err.Error(), conversionStatus(err))
		return
	}

	packed, err := eink.PackFramebuffer(frame, palette.Spectra6)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	id, err := g.db.SaveFrame(&Frame{
		Title:        req.Title,
		Width:        frame.Width,
		Height:       frame.Height,
		SleepSeconds: req.SleepSeconds,
		Data:         packed,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"id": id, "width": frame.Width, "height": frame.Height})
}

func cropOrCentered(v *float64) float64 {
	if v == nil {
		return 50
	}
	return *v
}

// conversionStatus maps pipeline failures onto HTTP statuses: bad
// input is the client's fault, everything past decoding is ours.
func conversionStatus(err error) int {
	var decodeErr *eink.DecodeError
	var channelErr *eink.ChannelMismatchError
	if errors.As(err, &decodeErr) || errors.As(err, &channelErr) {
		return http.StatusBadRequest
	}
	var dimensionErr *eink.DimensionMismatchError
	if errors.As(err, &dimensionErr) {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func (g *Glance) handleCurrent(w http.ResponseWriter, r *http.Request) {
	frame, ok := g.currentFrame(w, r)
	if !ok {
		return
	}
	writeJSON(w, currentResponse{
		Image:         base64.StdEncoding.EncodeToString(frame.Data),
		Title:         frame.Title,
		Width:         frame.Width,
		Height:        frame.Height,
		SleepDuration: frame.SleepSeconds,
	})
}

func (g *Glance) handleDisplayBin(w http.ResponseWriter, r *http.Request) {
	frame, ok := g.currentFrame(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(frame.Data); err != nil {
		g.logger.Printf("Writing framebuffer: %v\n", err)
	}
}

func (g *Glance) currentFrame(w http.ResponseWriter, r *http.Request) (*Frame, bool) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	frame, err := g.db.CurrentFrame()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if frame == nil {
		http.Error(w, "no frame uploaded yet", http.StatusNotFound)
		return nil, false
	}
	return frame, true
}

func (g *Glance) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.DeviceID) == "" {
		http.Error(w, "deviceId is required", http.StatusBadRequest)
		return
	}

	if err := g.db.SaveStatus(&DeviceStatus{
		DeviceID:          req.DeviceID,
		BatteryVoltage:    req.BatteryVoltage,
		SignalStrength:    req.SignalStrength,
		Temperature:       req.Temperature,
		Uptime:            req.Uptime,
		Firmware:          req.FirmwareVersion,
		LastUpdateSuccess: req.LastUpdateSuccess,
		LastError:         req.LastError,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	g.logger.Printf("Status from %s: battery %.2fV, signal %d dBm\n", req.DeviceID, req.BatteryVoltage, req.SignalStrength)
	writeJSON(w, map[string]interface{}{"code": 0})
}

func (g *Glance) handleDevice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	deviceID := strings.TrimPrefix(r.URL.Path, "/api/devices/")
	if deviceID == "" {
		http.Error(w, "device id missing", http.StatusBadRequest)
		return
	}

	status, err := g.db.LatestStatus(deviceID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if status == nil {
		http.Error(w, "unknown device", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]interface{}{
		"deviceId":          status.DeviceID,
		"batteryVoltage":    status.BatteryVoltage,
		"signalStrength":    status.SignalStrength,
		"temperature":       status.Temperature,
		"uptime":            status.Uptime,
		"firmwareVersion":   status.Firmware,
		"lastUpdateSuccess": status.LastUpdateSuccess,
		"lastError":         status.LastError,
		"reportedAt":        status.ReportedAt,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
