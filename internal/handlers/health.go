package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/process"
)

// Health reports process memory and CPU usage for monitoring probes.
func Health(c *gin.Context) {
	resp := gin.H{"status": "healthy"}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfo(); err == nil {
			resp["memory_mb"] = float64(mem.RSS) / 1024 / 1024
		}
		if cpu, err := p.CPUPercent(); err == nil {
			resp["cpu_percent"] = cpu
		}
	}

	c.JSON(http.StatusOK, resp)
}
