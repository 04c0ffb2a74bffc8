// Package kakao implements the three Kakao API adapters used by the tools:
// place search (Local API), calendar event creation and "send to me"
// messages (Talk API).
//
// Each adapter performs exactly one logical call, maps the response status
// to a *domain.Error and never retries. Every request is bounded by a
// 10 second timeout.
//
// Authentication:
//   - Local API: "Authorization: KakaoAK <REST API key>"
//   - Calendar and Talk APIs: "Authorization: Bearer <access token>" taken
//     from a TokenProvider at call time. A missing token fails with
//     KindConfigMissing before any request is sent.
package kakao
