//go:build !arenanocheck

package arena

// checkEpochs makes Reset and Purge panic when epochs are still active.
// Build with -tags arenanocheck to drop the check.
const checkEpochs = true
