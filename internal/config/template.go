package config

// DefaultTemplate is written by `aether config init`
const DefaultTemplate = `# Aether shell configuration
settings:
  # Distance in pixels at which a dragged window snaps to a guide
  snapThreshold: 20
  # cascade | centered
  placement: cascade
  cascadeOrigin: {x: 100, y: 100}
  cascadeStep: 40
  # Random offset used by centered placement
  jitter: 40
  titleBarHeight: 36
  viewport: {width: 1280, height: 800}
  wrapFocus: true
  # Opened when the daemon starts; the last one is focused
  startupApps: [omni]

# Per-app overrides of title and default size
apps:
  notepad:
    width: 480
    height: 420
`
