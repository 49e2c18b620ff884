package domain

// KeyPrefix namespaces every key written to the key-value store.
const KeyPrefix = "bookmarkd:"
