package texshare

import (
	"github.com/gogpu/texshare/host"
	"github.com/gogpu/texshare/settings"
)

// Filter identity.
const (
	// FilterID is the stable id the filter registers under.
	FilterID = "texshare_filter"

	// FilterName is the display name.
	FilterName = "Shared Texture Output"
)

// Defaults sets the default channel name.
func Defaults(data *settings.Data) {
	data.SetDefaultString(settings.KeySenderName, settings.DefaultSenderName)
}

// Info describes the filter to a host registry. Every instance is created
// with opts.
func Info(opts ...FilterOption) host.FilterInfo {
	return host.FilterInfo{
		ID:       FilterID,
		Name:     FilterName,
		Defaults: Defaults,
		Create: func(rt host.Runtime, ctx host.Context, data *settings.Data) host.Instance {
			return NewFilter(rt, ctx, data, opts...)
		},
	}
}

// Register adds the filter to reg.
func Register(reg *host.Registry, opts ...FilterOption) error {
	return reg.Register(Info(opts...))
}
