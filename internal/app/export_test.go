package app

// ApplySettings exposes applySettings for tests.
var ApplySettings = applySettings
