package leetcode

const (
	OpUserProfile       = "userProfile"
	OpRecentSubmissions = "recentSubmissions"
	OpDailyChallenge    = "questionOfToday"
	OpUserStatus        = "globalData"
)

const queryUserProfile = `
query userProfile($username: String!) {
  allQuestionsCount {
    difficulty
    count
  }
  matchedUser(username: $username) {
    username
    profile {
      realName
      userAvatar
      ranking
    }
    submitStats {
      acSubmissionNum {
        difficulty
        count
        submissions
      }
      totalSubmissionNum {
        difficulty
        count
        submissions
      }
    }
    submissionCalendar
  }
}
`

const queryRecentSubmissions = `
query recentSubmissions($username: String!, $limit: Int!) {
  recentSubmissionList(username: $username, limit: $limit) {
    id
    title
    titleSlug
    timestamp
    lang
    runtime
    statusDisplay
  }
}
`

const queryDailyChallenge = `
query questionOfToday {
  activeDailyCodingChallengeQuestion {
    date
    link
    question {
      questionFrontendId
      title
      titleSlug
      difficulty
      acRate
    }
  }
}
`

const queryUserStatus = `
query globalData {
  userStatus {
    isSignedIn
    username
  }
}
`

func UserProfileRequest(username string) Request {
	return Request{
		Query:         queryUserProfile,
		OperationName: OpUserProfile,
		Variables:     map[string]any{"username": username},
	}
}

func RecentSubmissionsRequest(username string, limit int) Request {
	return Request{
		Query:         queryRecentSubmissions,
		OperationName: OpRecentSubmissions,
		Variables: map[string]any{
			"username": username,
			"limit":    limit,
		},
	}
}

func DailyChallengeRequest() Request {
	return Request{
		Query:         queryDailyChallenge,
		OperationName: OpDailyChallenge,
		Variables:     map[string]any{},
	}
}

func UserStatusRequest() Request {
	return Request{
		Query:         queryUserStatus,
		OperationName: OpUserStatus,
		Variables:     map[string]any{},
	}
}
