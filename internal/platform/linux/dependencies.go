//go:build linux

package linux

import (
	"fmt"
	"strings"
)

// DependencyInfo contains information about a missing dependency and how to install it.
type DependencyInfo struct {
	Name        string
	WhyNeeded   string
	InstallCmd  string
	Optional    bool
	Alternative string
}

// packageNames maps a tool to its package, per package manager. The "" key
// is the fallback.
var packageNames = map[string]map[string]string{
	"xdotool":       {"": "xdotool"},
	"brightnessctl": {"": "brightnessctl"},
	"xdg-open":      {"": "xdg-utils"},
	"xset": {
		"":       "xset",
		"apt":    "x11-xserver-utils",
		"pacman": "xorg-xset",
	},
}

// getPackageName returns the package name for a tool on a specific package manager.
func getPackageName(tool, pkgManager string) string {
	names, ok := packageNames[strings.ToLower(tool)]
	if !ok {
		return ""
	}
	if name, ok := names[pkgManager]; ok {
		return name
	}
	return names[""]
}

// GenerateInstallCommand generates a distro-specific installation command for the given tool.
func GenerateInstallCommand(tool string, distro DistroInfo) (cmd string, note string) {
	if tool == "" {
		return "", "Tool name is required"
	}

	pkgName := getPackageName(tool, distro.PkgManager)
	if pkgName == "" {
		return "", fmt.Sprintf("Package name not available for tool '%s'", tool)
	}

	switch distro.PkgManager {
	case "apt":
		cmd = fmt.Sprintf("sudo apt update && sudo apt install %s", pkgName)
	case "dnf", "yum":
		cmd = fmt.Sprintf("sudo %s install %s", distro.PkgManager, pkgName)
	case "pacman":
		cmd = fmt.Sprintf("sudo pacman -S %s", pkgName)
	case "zypper":
		cmd = fmt.Sprintf("sudo zypper install %s", pkgName)
	case "apk":
		cmd = fmt.Sprintf("sudo apk add %s", pkgName)
	default:
		cmd = fmt.Sprintf("Install %s using your distribution's package manager", pkgName)
		note = fmt.Sprintf("Package name: %s. Check your distribution's repositories.", pkgName)
	}
	return cmd, note
}

// CheckMissingDependencies checks which tools are missing and returns installation information.
func CheckMissingDependencies(caps Capabilities, distro DistroInfo) []DependencyInfo {
	var missing []DependencyInfo
	add := func(tool, why, alt string, optional bool) {
		cmd, note := GenerateInstallCommand(tool, distro)
		if note != "" {
			alt = strings.TrimSpace(note + "\n" + alt)
		}
		missing = append(missing, DependencyInfo{
			Name:        tool,
			WhyNeeded:   why,
			InstallCmd:  cmd,
			Optional:    optional,
			Alternative: alt,
		})
	}

	if !caps.XdotoolAvailable {
		why := "Reads pointer position and the focused window, and sends the key and mouse keep-alive actions"
		alt := "Without it activity detection sees nothing and only the app, browser and command actions work"
		if caps.DisplayServer == DisplayServerWayland {
			alt = "On Wayland xdotool only reaches XWayland windows; use the app, browser or command action"
		}
		add("xdotool", why, alt, false)
	}
	if caps.DisplayServer == DisplayServerX11 && !caps.XsetAvailable {
		add("xset", "Puts the monitor to sleep or off when idle-display-mode is sleep or off", "Leave idle-display-mode at normal or dim", true)
	}
	if !caps.BrightnessctlAvailable {
		add("brightnessctl", "Dims the backlight when idle-display-mode is dim", "Leave idle-display-mode at normal", true)
	}
	if !caps.XdgOpenAvailable {
		add("xdg-open", "Opens the URL for the browser keep-alive action", "Use another keep-alive method", true)
	}
	return missing
}

// FormatDependencyMessages formats dependency information into user-friendly messages.
func FormatDependencyMessages(missing []DependencyInfo) string {
	if len(missing) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("═══════════════════════════════════════════════════════════\n")
	b.WriteString("  Missing Dependencies Detected\n")
	b.WriteString("═══════════════════════════════════════════════════════════\n")
	b.WriteString("\n")

	for i, dep := range missing {
		label := dep.Name
		if dep.Optional {
			label += " (optional)"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, label)
		fmt.Fprintf(&b, "   Why needed: %s\n", dep.WhyNeeded)
		fmt.Fprintf(&b, "   Install with: %s\n", dep.InstallCmd)
		if dep.Alternative != "" {
			fmt.Fprintf(&b, "   Alternative: %s\n", dep.Alternative)
		}
		b.WriteString("\n")
	}
	b.WriteString("═══════════════════════════════════════════════════════════\n")
	return b.String()
}

// GetDependencyMessage returns the formatted dependency message if dependencies are missing.
func GetDependencyMessage() string {
	return FormatDependencyMessages(CheckMissingDependencies(DetectCapabilities(), DetectDistribution()))
}
