package platformx

func maybeEmitWarning() {
	// TCP_INFO extraction is fully supported here; nothing to warn about.
}
