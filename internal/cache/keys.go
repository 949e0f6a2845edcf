package cache

import "fmt"

const keyProjectFmt = "project:snapshot:%s" // String, snapshot JSON with TTL

func projectKey(id string) string { return fmt.Sprintf(keyProjectFmt, id) }
