package jobstore

import "fmt"

func jobKey(id string) string {
	return fmt.Sprintf("transcribe:job:%s", id)
}

func audioKey(id string) string {
	return fmt.Sprintf("transcribe:audio:%s", id)
}

func metaKey(id string) string {
	return fmt.Sprintf("transcribe:meta:%s", id)
}
