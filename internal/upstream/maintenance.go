package upstream

import (
	"context"
	"net/http"
)

// DiskStatus is the storage-side health the disk panel renders.
type DiskStatus struct {
	Path        string  `json:"path"`
	TotalBytes  int64   `json:"total_bytes"`
	UsedBytes   int64   `json:"used_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

// ServiceStatus is one upstream service's health entry.
type ServiceStatus struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

// MaintenanceStatus fetches the disk and service health the maintenance
// panels show.
func (c *Client) MaintenanceStatus(ctx context.Context, token string) ([]DiskStatus, []ServiceStatus, error) {
	var out struct {
		Data struct {
			Disks    []DiskStatus    `json:"disks"`
			Services []ServiceStatus `json:"services"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/maintenance/status", token, nil, &out); err != nil {
		return nil, nil, err
	}
	return out.Data.Disks, out.Data.Services, nil
}
