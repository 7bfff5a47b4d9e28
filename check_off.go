//go:build arenanocheck

package arena

const checkEpochs = false
