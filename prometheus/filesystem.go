package prometheus

import (
	"github.com/ezshield/logrelay/io/fs"

	"github.com/prometheus/client_golang/prometheus"
)

type filesystemCollector struct {
	id string
	fs fs.Filesystem

	fsUsageDesc *prometheus.Desc
	fsFilesDesc *prometheus.Desc
}

// NewFilesystemCollector returns a collector for the number and the size
// of the files in the process directory.
func NewFilesystemCollector(id string, f fs.Filesystem) prometheus.Collector {
	return &filesystemCollector{
		id: id,
		fs: f,
		fsUsageDesc: prometheus.NewDesc(
			"logrelay_filesystem_usage_bytes",
			"Size of all files in the process directory",
			[]string{"id", "name", "type"}, nil),
		fsFilesDesc: prometheus.NewDesc(
			"logrelay_filesystem_files",
			"Number of files in the process directory",
			[]string{"id", "name", "type"}, nil),
	}
}

func (c *filesystemCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.fsUsageDesc
	ch <- c.fsFilesDesc
}

func (c *filesystemCollector) Collect(ch chan<- prometheus.Metric) {
	files := c.fs.List("/", "")

	usage := int64(0)
	for _, f := range files {
		usage += f.Size()
	}

	ch <- prometheus.MustNewConstMetric(c.fsUsageDesc, prometheus.GaugeValue, float64(usage), c.id, c.fs.Name(), c.fs.Type())
	ch <- prometheus.MustNewConstMetric(c.fsFilesDesc, prometheus.GaugeValue, float64(len(files)), c.id, c.fs.Name(), c.fs.Type())
}
