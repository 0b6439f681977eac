// meta/meta.go
package meta

// ALPHA defines the default learning rate.
const ALPHA = 0.5

// GAMMA defines the default discount factor.
const GAMMA = 0.6

// EPSILON defines the default starting exploration rate.
const EPSILON = 1.0

// DECAY defines how fast epsilon falls between training episodes.
const DECAY = 0.01

const TRAIN_EPISODES = 1000

const TEST_EPISODES = 100

// STEP_LIMIT caps the steps of one episode.
const STEP_LIMIT = 100

// MAX_URLS caps the pages visited while building the UI tree.
const MAX_URLS = 10

const RETRIES = 10

// RETRY_DELAY_SECONDS is the wait between two attempts of a browser action.
const RETRY_DELAY_SECONDS = 10

const TIMEOUT_SECONDS = 30

const REWARD_FUNC = "ENCOURAGE_EXPLORATION"
