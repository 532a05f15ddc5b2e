package scheduler

// NewBlockCallback returns a callback that runs execute every interval
// blocks. An interval below 1 runs on every block.
func NewBlockCallback(name string, interval int, execute func() error) *BlockCallback {
	if interval < 1 {
		interval = 1
	}
	if name == "" {
		name = "unnamed"
	}
	return &BlockCallback{
		LastTriggerAtBlock: -1,
		name:               name,
		interval:           interval,
		executeFn:          execute,
	}
}

// ShouldTrigger is always true before the first run so state is populated
// on the first block seen.
func (bc *BlockCallback) ShouldTrigger(currentBlock int) bool {
	if bc.LastTriggerAtBlock < 0 {
		return true
	}
	return currentBlock-bc.LastTriggerAtBlock >= bc.interval
}

func (bc *BlockCallback) Execute() error {
	return bc.executeFn()
}

func (bc *BlockCallback) MarkTriggered(block int) {
	bc.LastTriggerAtBlock = block
}

func (bc *BlockCallback) GetName() string {
	return bc.name
}
