package constants

const USER_AGENT = "collapser/1.0"
