// Package toolprovider links every built-in tool into the tooldef registry.
package toolprovider

import (
	_ "github.com/odit-bit/ada/ada/agent/toolprovider/reservation"
	_ "github.com/odit-bit/ada/ada/agent/toolprovider/xtime"
)
